package core

import "time"

// Item 是目录中的物品。单次推荐请求内视为只读快照，由目录管理方在外部修改。
//
// Price、StockQuantity 可为空；Rating 取值 0.0 - 5.0。
type Item struct {
	ID            int64          `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description" yaml:"description"`
	CategoryID    int64          `json:"category_id" yaml:"category_id"`
	Price         *float64       `json:"price" yaml:"price"`
	Rating        float64        `json:"rating" yaml:"rating"`
	RatingCount   int            `json:"rating_count" yaml:"rating_count"`
	Attributes    map[string]any `json:"attributes" yaml:"attributes"`
	Available     bool           `json:"availability" yaml:"availability"`
	StockQuantity *int           `json:"stock_quantity" yaml:"stock_quantity"`
}

// HasPrice 物品是否有价格
func (it *Item) HasPrice() bool {
	return it != nil && it.Price != nil
}

// Category 是物品分类。
type Category struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// InteractionType 用户行为类型。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionDislike  InteractionType = "dislike"
	InteractionPurchase InteractionType = "purchase"
	InteractionRating   InteractionType = "rating"
)

// Valid 是否为已知行为类型
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionLike, InteractionDislike, InteractionPurchase, InteractionRating:
		return true
	default:
		return false
	}
}

// Positive 行为是否表达正向偏好（like / purchase），画像与协同过滤只看这两类。
func (t InteractionType) Positive() bool {
	return t == InteractionLike || t == InteractionPurchase
}

// Interaction 是一条用户行为日志。只追加，不更新、不删除。
type Interaction struct {
	UserID    int64           `json:"user_id" yaml:"user_id"`
	ItemID    int64           `json:"item_id" yaml:"item_id"`
	Type      InteractionType `json:"interaction_type" yaml:"interaction_type"`
	Rating    *int            `json:"rating,omitempty" yaml:"rating"` // 1 - 5，可为空
	Feedback  string          `json:"feedback_text,omitempty" yaml:"feedback_text"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
}

// RatedAtLeast 没有评分时视为满足；有评分时要求 >= min。
func (in *Interaction) RatedAtLeast(min int) bool {
	return in.Rating == nil || *in.Rating >= min
}

// User 是用户基础信息，Preferences 为用户自填的偏好（自由格式）。
type User struct {
	ID          int64          `json:"id" yaml:"id"`
	Username    string         `json:"username" yaml:"username"`
	Email       string         `json:"email" yaml:"email"`
	Preferences map[string]any `json:"preferences" yaml:"preferences"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}
