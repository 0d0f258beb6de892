package dsl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/hybridrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境：item 为物品属性 map，其余变量为过滤条件的取值。
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("max_price", cel.DoubleType),
		cel.Variable("min_price", cel.DoubleType),
		cel.Variable("min_rating", cel.DoubleType),
		cel.Variable("category_id", cel.IntType),
		cel.Variable("category", cel.StringType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Predicate 是编译后的物品过滤表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可并发地对多个物品求值。
//
// 表达式语法（CEL 标准语法），item 的 key 见 ItemVars：
//   - has(item.price) && item.price <= max_price
//   - item.rating >= 4.0 && item.category_id == 3
//   - item.available == true
type Predicate struct {
	Expr string
	prg  cel.Program
	vars map[string]any
}

// Compile 编译任意布尔表达式。空表达式恒为 true。
func Compile(expr string) (*Predicate, error) {
	return compile(expr, nil)
}

// FromFilters 把过滤条件翻译为 CEL 表达式：
//   - 价格条件要求物品有价格
//   - 分类文本只在物品携带 category 属性时比较（忽略大小写）
//   - Purpose 不参与过滤
func FromFilters(f core.Filters) (*Predicate, error) {
	var (
		clauses []string
		vars    = make(map[string]any)
	)
	if f.MaxPrice != nil {
		clauses = append(clauses, "has(item.price) && item.price <= max_price")
		vars["max_price"] = *f.MaxPrice
	}
	if f.MinPrice != nil {
		clauses = append(clauses, "has(item.price) && item.price >= min_price")
		vars["min_price"] = *f.MinPrice
	}
	if f.MinRating != nil {
		clauses = append(clauses, "item.rating >= min_rating")
		vars["min_rating"] = *f.MinRating
	}
	if f.CategoryID != nil {
		clauses = append(clauses, "item.category_id == category_id")
		vars["category_id"] = *f.CategoryID
	}
	if f.Category != nil && *f.Category != "" {
		clauses = append(clauses, "(!has(item.category) || item.category == category)")
		vars["category"] = strings.ToLower(*f.Category)
	}
	for i, c := range clauses {
		clauses[i] = "(" + c + ")"
	}
	return compile(strings.Join(clauses, " && "), vars)
}

func compile(expr string, vars map[string]any) (*Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		expr = "true"
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{Expr: expr, prg: prg, vars: vars}, nil
}

// Match 对一个物品求值。item 通常由 ItemVars 构建。
func (p *Predicate) Match(item map[string]any) (bool, error) {
	input := make(map[string]any, len(p.vars)+1)
	for k, v := range p.vars {
		input[k] = v
	}
	input["item"] = item

	out, _, err := p.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// MatchItem 对目录物品求值
func (p *Predicate) MatchItem(it *core.Item) (bool, error) {
	return p.Match(ItemVars(it))
}

// ItemVars 构建 CEL 的 item 输入。数值统一为 float64 / int64，价格为空时不写入 price。
func ItemVars(it *core.Item) map[string]any {
	m := map[string]any{
		"id":           it.ID,
		"name":         it.Name,
		"rating":       it.Rating,
		"rating_count": int64(it.RatingCount),
		"category_id":  it.CategoryID,
		"available":    it.Available,
	}
	if it.Price != nil {
		m["price"] = *it.Price
	}
	if len(it.Attributes) > 0 {
		m["attributes"] = it.Attributes
	}
	return m
}
