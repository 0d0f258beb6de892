package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/breaker"
	"github.com/rushteam/hybridrec/pkg/conv"
)

// Milvus 集合字段
const (
	fieldItemID     = "item_id"
	fieldEmbedding  = "embedding"
	fieldCategoryID = "category_id"
	fieldCategory   = "category"
	fieldPrice      = "price"
	fieldHasPrice   = "has_price"
	fieldRating     = "rating"
)

// MilvusConfig Milvus 连接与检索配置
type MilvusConfig struct {
	Address    string         `koanf:"address"`
	Username   string         `koanf:"username"`
	Password   string         `koanf:"password"`
	Database   string         `koanf:"database"`
	Collection string         `koanf:"collection"`
	Dimension  int            `koanf:"dimension"`
	EF         int            `koanf:"ef"`
	Breaker    breaker.Config `koanf:"breaker"`
}

// DefaultMilvusConfig 默认配置：item_embeddings 集合，384 维，COSINE，ef=64。
func DefaultMilvusConfig() MilvusConfig {
	return MilvusConfig{
		Address:    "localhost:19530",
		Database:   "default",
		Collection: "item_embeddings",
		Dimension:  384,
		EF:         64,
		Breaker:    breaker.DefaultConfig(),
	}
}

// Milvus 是 Milvus 向量数据库的 core.VectorIndexer 实现。
//
// 集合 schema：item_id(Int64 主键) / embedding(FloatVector) / category_id(Int64) /
// category(VarChar，小写) / price(Double) / has_price(Bool) / rating(Double)。
// 过滤条件翻译为模板参数表达式，检索调用经过熔断器。
type Milvus struct {
	cfg    MilvusConfig
	client *milvusclient.Client
	cb     *gobreaker.CircuitBreaker[[]milvusclient.ResultSet]
}

// NewMilvus 创建 Milvus 客户端。
func NewMilvus(ctx context.Context, cfg MilvusConfig, logger zerolog.Logger, listener breaker.StateListener) (*Milvus, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultMilvusConfig().Collection
	}
	if cfg.EF <= 0 {
		cfg.EF = DefaultMilvusConfig().EF
	}
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("create milvus client: %w", err)
	}
	return &Milvus{
		cfg:    cfg,
		client: client,
		cb:     breaker.New[[]milvusclient.ResultSet]("milvus", cfg.Breaker, logger, listener),
	}, nil
}

func (s *Milvus) collectionName(name string) string {
	if name == "" {
		return s.cfg.Collection
	}
	return name
}

// Search 实现 core.VectorService 接口
func (s *Milvus) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: query vector is required")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	annParam := index.NewCustomAnnParam()
	annParam.WithExtraParam("ef", s.cfg.EF)

	// metric 在创建集合时已确定，搜索时自动使用
	opt := milvusclient.NewSearchOption(s.collectionName(req.Collection), topK,
		[]entity.Vector{entity.FloatVector(conv.Float32s(req.Vector))}).
		WithOutputFields(fieldItemID).
		WithAnnParam(annParam)

	expr, params := filterExpr(req.Filters)
	if expr != "" {
		opt = opt.WithFilter(expr)
		for name, v := range params {
			opt = opt.WithTemplateParam(name, v)
		}
	}

	resultSets, err := s.cb.Execute(func() ([]milvusclient.ResultSet, error) {
		return s.client.Search(ctx, opt)
	})
	if err != nil {
		if breaker.IsRejected(err) {
			return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "vector: milvus circuit open", err)
		}
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	items := make([]core.VectorSearchItem, 0, topK)
	for _, rs := range resultSets {
		if rs.Err != nil {
			return nil, fmt.Errorf("milvus result set: %w", rs.Err)
		}
		for i := 0; i < rs.Len(); i++ {
			id, err := rs.IDs.Get(i)
			if err != nil {
				return nil, fmt.Errorf("milvus result id %d: %w", i, err)
			}
			itemID, ok := conv.ToInt64(id)
			if !ok {
				return nil, fmt.Errorf("milvus result id %v: unexpected type %T", id, id)
			}
			item := core.VectorSearchItem{ItemID: itemID}
			if i < len(rs.Scores) {
				item.Score = float64(rs.Scores[i])
			}
			items = append(items, item)
		}
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// filterExpr 把过滤条件翻译为 Milvus 模板表达式，如 "has_price == true && price <= {max_price}"。
func filterExpr(f core.Filters) (string, map[string]any) {
	var (
		exprs  []string
		params = make(map[string]any)
	)
	if f.MaxPrice != nil {
		exprs = append(exprs, fmt.Sprintf("%s == true && %s <= {max_price}", fieldHasPrice, fieldPrice))
		params["max_price"] = *f.MaxPrice
	}
	if f.MinPrice != nil {
		exprs = append(exprs, fmt.Sprintf("%s == true && %s >= {min_price}", fieldHasPrice, fieldPrice))
		params["min_price"] = *f.MinPrice
	}
	if f.MinRating != nil {
		exprs = append(exprs, fmt.Sprintf("%s >= {min_rating}", fieldRating))
		params["min_rating"] = *f.MinRating
	}
	if f.CategoryID != nil {
		exprs = append(exprs, fmt.Sprintf("%s == {category_id}", fieldCategoryID))
		params["category_id"] = *f.CategoryID
	}
	if f.Category != nil && *f.Category != "" {
		exprs = append(exprs, fmt.Sprintf("%s == {category}", fieldCategory))
		params["category"] = strings.ToLower(*f.Category)
	}
	return strings.Join(exprs, " && "), params
}

// Upsert 实现 core.VectorIndexer 接口
func (s *Milvus) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	if req == nil || len(req.Items) == 0 {
		return nil
	}
	if len(req.Items) != len(req.Vectors) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: items and vectors length mismatch")
	}

	n := len(req.Items)
	var (
		ids        = make([]int64, n)
		vectors    = make([][]float32, n)
		categoryID = make([]int64, n)
		category   = make([]string, n)
		price      = make([]float64, n)
		hasPrice   = make([]bool, n)
		rating     = make([]float64, n)
	)
	dim := s.cfg.Dimension
	for i, it := range req.Items {
		if dim <= 0 {
			dim = len(req.Vectors[i])
		}
		if len(req.Vectors[i]) != dim {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
				fmt.Sprintf("vector: item %d dimension mismatch, want %d got %d", it.ID, dim, len(req.Vectors[i])))
		}
		ids[i] = it.ID
		vectors[i] = conv.Float32s(req.Vectors[i])
		categoryID[i] = it.CategoryID
		category[i] = strings.ToLower(req.CategoryNames[it.CategoryID])
		if it.Price != nil {
			price[i] = *it.Price
			hasPrice[i] = true
		}
		rating[i] = it.Rating
	}

	opt := milvusclient.NewColumnBasedInsertOption(s.collectionName(req.Collection),
		column.NewColumnInt64(fieldItemID, ids),
		column.NewColumnFloatVector(fieldEmbedding, dim, vectors),
		column.NewColumnInt64(fieldCategoryID, categoryID),
		column.NewColumnVarChar(fieldCategory, category),
		column.NewColumnDouble(fieldPrice, price),
		column.NewColumnBool(fieldHasPrice, hasPrice),
		column.NewColumnDouble(fieldRating, rating),
	)
	if _, err := s.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}
	return nil
}

// EnsureCollection 集合不存在时按固定 schema 创建（AUTOINDEX + COSINE）。
func (s *Milvus) EnsureCollection(ctx context.Context) error {
	name := s.cfg.Collection
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("milvus has collection failed: %w", err)
	}
	if exists {
		return nil
	}
	if s.cfg.Dimension <= 0 {
		return fmt.Errorf("milvus: dimension must be greater than 0")
	}

	schema := entity.NewSchema().
		WithName(name).
		WithField(entity.NewField().WithName(fieldItemID).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.cfg.Dimension))).
		WithField(entity.NewField().WithName(fieldCategoryID).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(fieldCategory).WithDataType(entity.FieldTypeVarChar).WithMaxLength(255)).
		WithField(entity.NewField().WithName(fieldPrice).WithDataType(entity.FieldTypeDouble)).
		WithField(entity.NewField().WithName(fieldHasPrice).WithDataType(entity.FieldTypeBool)).
		WithField(entity.NewField().WithName(fieldRating).WithDataType(entity.FieldTypeDouble))

	indexOpt := milvusclient.NewCreateIndexOption(name, fieldEmbedding, index.NewAutoIndex(entity.COSINE))
	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema).WithIndexOptions(indexOpt)); err != nil {
		return fmt.Errorf("milvus create collection failed: %w", err)
	}
	return nil
}

// Ping 检查集合是否可访问
func (s *Milvus) Ping(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.cfg.Collection))
	if err != nil {
		return fmt.Errorf("milvus has collection failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("milvus collection %s not found", s.cfg.Collection)
	}
	return nil
}

func (s *Milvus) Close() error {
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}

var (
	_ core.VectorIndexer = (*Milvus)(nil)
	_ core.Pinger        = (*Milvus)(nil)
)
