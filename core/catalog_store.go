package core

import (
	"context"
	"time"
)

// CatalogStore 是物品目录的读接口。
type CatalogStore interface {
	// GetItem 按 ID 读取物品；不存在时返回 ErrItemNotFound
	GetItem(ctx context.Context, id int64) (*Item, error)

	// GetItems 批量读取；不存在的 ID 不出现在结果中，不报错
	GetItems(ctx context.Context, ids []int64) (map[int64]*Item, error)

	// QueryItems 按分类/价格/评分条件分页查询，返回当前页与总数。无结果不是错误。
	QueryItems(ctx context.Context, q CatalogQuery) (*ItemPage, error)

	// ListCategories 列出全部分类
	ListCategories(ctx context.Context) ([]Category, error)
}

// CatalogOrder 排序方式
type CatalogOrder string

const (
	OrderByID         CatalogOrder = "id"
	OrderByRatingDesc CatalogOrder = "rating_desc"
)

// CatalogQuery 目录查询条件。价格条件存在时，无价格的物品不出现在结果中。
type CatalogQuery struct {
	CategoryIDs   []int64 // 为空表示不限分类
	MinPrice      *float64
	MaxPrice      *float64
	MinRating     *float64
	AvailableOnly bool
	OrderBy       CatalogOrder
	Limit         int // <= 0 表示不限
	Offset        int
}

// PriceRatingFilters 返回查询中的价格/评分条件
func (q CatalogQuery) PriceRatingFilters() Filters {
	return Filters{MinPrice: q.MinPrice, MaxPrice: q.MaxPrice, MinRating: q.MinRating}
}

// ItemPage 分页结果
type ItemPage struct {
	Items []*Item
	Total int64
}

// InteractionQuery 行为查询条件
type InteractionQuery struct {
	Types       []InteractionType // 为空表示全部类型
	Limit       int               // <= 0 表示不限
	NewestFirst bool
}

// Matches 行为类型是否在查询范围内
func (q InteractionQuery) Matches(t InteractionType) bool {
	if len(q.Types) == 0 {
		return true
	}
	for _, want := range q.Types {
		if want == t {
			return true
		}
	}
	return false
}

// InteractionStore 是行为日志接口：只追加，按用户或物品查询。
type InteractionStore interface {
	Append(ctx context.Context, in *Interaction) error
	ListByUser(ctx context.Context, userID int64, q InteractionQuery) ([]Interaction, error)
	ListByItem(ctx context.Context, itemID int64, q InteractionQuery) ([]Interaction, error)
}

// UserStore 用户信息接口
type UserStore interface {
	// GetUser 不存在时返回 NOT_FOUND 错误
	GetUser(ctx context.Context, id int64) (*User, error)
}

// AlgorithmVersion 当前混合算法版本，写入审计记录
const AlgorithmVersion = "hybrid_v1"

// AuditRecord 是一次推荐的审计记录，反馈提交后补充 Rating / FeedbackText。
type AuditRecord struct {
	QueryID          string    `json:"query_id"`
	UserID           *int64    `json:"user_id,omitempty"`
	QueryText        string    `json:"query_text"`
	ProcessedQuery   string    `json:"processed_query"`
	Intent           string    `json:"intent"`
	SelectedItemIDs  []int64   `json:"selected_items"`
	AlgorithmVersion string    `json:"algorithm_version"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	Rating           *int      `json:"user_feedback,omitempty"`
	FeedbackText     string    `json:"feedback_text,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuditStore 审计记录接口
type AuditStore interface {
	// Save 追加一条审计记录
	Save(ctx context.Context, rec *AuditRecord) error

	// AttachFeedback 为已有记录补充用户评分与反馈；记录不存在时返回 ErrQueryNotFound
	AttachFeedback(ctx context.Context, queryID string, rating int, text string) error

	// Get 读取审计记录；不存在时返回 ErrQueryNotFound
	Get(ctx context.Context, queryID string) (*AuditRecord, error)
}

// Pinger 可探活的依赖（健康检查用）
type Pinger interface {
	Ping(ctx context.Context) error
}
