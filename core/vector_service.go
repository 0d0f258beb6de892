package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（vector）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 语义召回：根据查询向量检索物品向量，过滤条件下推到检索服务
//
// 实现：
//   - vector.Milvus 实现此接口
//   - vector.MemoryIndex 实现此接口（测试/开发）
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorIndexer 是可写入向量的检索服务（用于离线灌库）。
type VectorIndexer interface {
	VectorService

	// Upsert 写入或覆盖物品向量
	Upsert(ctx context.Context, req *VectorUpsertRequest) error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称（为空时使用实现方的默认集合）
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Filters 过滤条件：价格、评分、分类
	Filters Filters
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ItemID 物品 ID
	ItemID int64

	// Score 相似度分数（越大越相似，已归一化）
	Score float64

	// Metadata 附带的元数据
	Metadata map[string]any
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度降序）
	Items []VectorSearchItem
}

// VectorUpsertRequest 向量写入请求。Vectors 与 Items 一一对应；
// CategoryNames 提供分类名称，写入元数据后可按分类文本过滤。
type VectorUpsertRequest struct {
	Collection    string
	Items         []*Item
	Vectors       [][]float64
	CategoryNames map[int64]string
}

// MetricType 距离度量类型
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch MetricType(metric) {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}
