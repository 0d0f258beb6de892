package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// Content 是基于内容的召回源：按用户偏好分类与合并后的过滤条件查询目录，再按画像打分。
//
// 打分规则：
//   - 基础分 ContentBase
//   - 物品分类在偏好分类中 +ContentCategoryBonus
//   - 物品评分 > HighRating +ContentRatingBonus
//   - 物品价格落在 [avg×(1-PriceRangeMultiplier), avg×(1+PriceRangeMultiplier)] +ContentPriceBonus
//   - 结果裁剪到 1
//
// 目录按评分降序返回，截断到召回条数。匿名用户或空画像直接返回空。
type Content struct {
	Catalog core.CatalogStore
	Policy  core.Policy

	// Multiplier 召回条数 = Limit × Multiplier（默认 2）
	Multiplier int
}

func (r *Content) Name() string { return string(core.SignalContent) }

func (r *Content) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	profile := rctx.Profile()
	if r.Catalog == nil || rctx.UserID == nil || profile.IsEmpty() {
		return nil, nil
	}
	multiplier := r.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	limit := overFetch(rctx, multiplier)
	if limit == 0 {
		return nil, nil
	}
	policy := r.Policy.OrDefault()

	q := core.CatalogQuery{
		CategoryIDs:   profile.PreferredCategories,
		MinPrice:      rctx.Filters.MinPrice,
		MaxPrice:      rctx.Filters.MaxPrice,
		MinRating:     rctx.Filters.MinRating,
		AvailableOnly: true,
		OrderBy:       core.OrderByRatingDesc,
		Limit:         limit,
	}
	categoryID, err := r.resolveCategory(ctx, rctx.Filters)
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		q.CategoryIDs = []int64{*categoryID}
	}

	page, err := r.Catalog.QueryItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}

	out := make([]*core.Candidate, 0, len(page.Items))
	for _, it := range page.Items {
		out = append(out, core.NewCandidate(it.ID, core.SignalContent, r.score(it, profile, policy)))
	}
	return out, nil
}

func (r *Content) score(it *core.Item, profile *core.UserProfile, policy core.Policy) float64 {
	score := policy.ContentBase
	if profile.PrefersCategory(it.CategoryID) {
		score += policy.ContentCategoryBonus
	}
	if it.Rating > policy.HighRating {
		score += policy.ContentRatingBonus
	}
	if profile.AvgPrice != nil && it.Price != nil {
		avg := *profile.AvgPrice
		low, high := avg*(1-policy.PriceRangeMultiplier), avg*(1+policy.PriceRangeMultiplier)
		if *it.Price >= low && *it.Price <= high {
			score += policy.ContentPriceBonus
		}
	}
	return core.Clip01(score)
}

// resolveCategory 解析显式分类：CategoryID 优先，否则按分类名称模糊匹配（忽略大小写）。
// 名称匹配不到任何分类时不限制分类。
func (r *Content) resolveCategory(ctx context.Context, f core.Filters) (*int64, error) {
	if f.CategoryID != nil {
		return f.CategoryID, nil
	}
	if f.Category == nil || strings.TrimSpace(*f.Category) == "" {
		return nil, nil
	}
	categories, err := r.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	want := strings.ToLower(strings.TrimSpace(*f.Category))
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), want) {
			id := c.ID
			return &id, nil
		}
	}
	return nil, nil
}
