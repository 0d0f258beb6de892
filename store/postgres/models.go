package postgres

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// JSONMap 以 JSON 存储的 map 列（attributes、preferences）
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil || data == nil {
		*m = nil
		return err
	}
	return json.Unmarshal(data, m)
}

// Int64s 以 JSON 数组存储的 ID 列表（selected_items）
type Int64s []int64

func (s Int64s) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(s))
}

func (s *Int64s) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil || data == nil {
		*s = nil
		return err
	}
	return json.Unmarshal(data, (*[]int64)(s))
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", src)
	}
}

// Category 分类表
type Category struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;index"`
	Description string `gorm:"type:text"`
	ParentID    *int64
	CreatedAt   time.Time
}

func (Category) TableName() string { return "categories" }

func (c *Category) toDomain() core.Category {
	return core.Category{ID: c.ID, Name: c.Name, Description: c.Description}
}

// Item 物品表
type Item struct {
	ID            int64    `gorm:"primaryKey"`
	Name          string   `gorm:"size:200;not null;index"`
	Description   string   `gorm:"type:text"`
	CategoryID    int64    `gorm:"index"`
	Price         *float64 `gorm:"index"`
	Rating        float64  `gorm:"default:0;index"`
	RatingCount   int      `gorm:"default:0"`
	Attributes    JSONMap  `gorm:"type:jsonb"`
	IsAvailable   bool     `gorm:"not null;index"`
	StockQuantity *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Item) TableName() string { return "items" }

func (it *Item) toDomain() *core.Item {
	return &core.Item{
		ID:            it.ID,
		Name:          it.Name,
		Description:   it.Description,
		CategoryID:    it.CategoryID,
		Price:         it.Price,
		Rating:        it.Rating,
		RatingCount:   it.RatingCount,
		Attributes:    it.Attributes,
		Available:     it.IsAvailable,
		StockQuantity: it.StockQuantity,
	}
}

func itemFromDomain(it *core.Item) *Item {
	return &Item{
		ID:            it.ID,
		Name:          it.Name,
		Description:   it.Description,
		CategoryID:    it.CategoryID,
		Price:         it.Price,
		Rating:        it.Rating,
		RatingCount:   it.RatingCount,
		Attributes:    it.Attributes,
		IsAvailable:   it.Available,
		StockQuantity: it.StockQuantity,
	}
}

// User 用户表
type User struct {
	ID          int64   `gorm:"primaryKey"`
	Username    string  `gorm:"size:50;uniqueIndex;not null"`
	Email       string  `gorm:"size:100;index"`
	Preferences JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

func (User) TableName() string { return "users" }

func (u *User) toDomain() *core.User {
	return &core.User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
	}
}

// Interaction 行为日志表，只追加
type Interaction struct {
	ID              int64  `gorm:"primaryKey"`
	UserID          int64  `gorm:"not null;index"`
	ItemID          int64  `gorm:"not null;index"`
	InteractionType string `gorm:"size:20;not null;index"`
	Rating          *int
	Feedback        string    `gorm:"type:text"`
	Timestamp       time.Time `gorm:"index"`
}

func (Interaction) TableName() string { return "user_interactions" }

func (in *Interaction) toDomain() core.Interaction {
	return core.Interaction{
		UserID:    in.UserID,
		ItemID:    in.ItemID,
		Type:      core.InteractionType(in.InteractionType),
		Rating:    in.Rating,
		Feedback:  in.Feedback,
		CreatedAt: in.Timestamp,
	}
}

func interactionFromDomain(in *core.Interaction) *Interaction {
	return &Interaction{
		UserID:          in.UserID,
		ItemID:          in.ItemID,
		InteractionType: string(in.Type),
		Rating:          in.Rating,
		Feedback:        in.Feedback,
		Timestamp:       in.CreatedAt,
	}
}

// Choice 查询审计表
type Choice struct {
	ID               int64  `gorm:"primaryKey"`
	QueryID          string `gorm:"size:64;uniqueIndex;not null"`
	UserID           *int64 `gorm:"index"`
	QueryText        string `gorm:"type:text;not null"`
	ProcessedQuery   string `gorm:"type:text"`
	Intent           string `gorm:"size:50"`
	SelectedItems    Int64s `gorm:"type:jsonb"`
	UserFeedback     *int
	FeedbackText     string `gorm:"type:text"`
	AlgorithmVersion string `gorm:"size:20"`
	ProcessingTimeMS int64
	CreatedAt        time.Time
}

func (Choice) TableName() string { return "choices" }

func (c *Choice) toDomain() *core.AuditRecord {
	return &core.AuditRecord{
		QueryID:          c.QueryID,
		UserID:           c.UserID,
		QueryText:        c.QueryText,
		ProcessedQuery:   c.ProcessedQuery,
		Intent:           c.Intent,
		SelectedItemIDs:  c.SelectedItems,
		AlgorithmVersion: c.AlgorithmVersion,
		ProcessingTimeMS: c.ProcessingTimeMS,
		Rating:           c.UserFeedback,
		FeedbackText:     c.FeedbackText,
		CreatedAt:        c.CreatedAt,
	}
}

func choiceFromDomain(rec *core.AuditRecord) *Choice {
	return &Choice{
		QueryID:          rec.QueryID,
		UserID:           rec.UserID,
		QueryText:        rec.QueryText,
		ProcessedQuery:   rec.ProcessedQuery,
		Intent:           rec.Intent,
		SelectedItems:    rec.SelectedItemIDs,
		UserFeedback:     rec.Rating,
		FeedbackText:     rec.FeedbackText,
		AlgorithmVersion: rec.AlgorithmVersion,
		ProcessingTimeMS: rec.ProcessingTimeMS,
		CreatedAt:        rec.CreatedAt,
	}
}
