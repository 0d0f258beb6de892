package server

import "github.com/rushteam/hybridrec/core"

// recommendRequest POST /api/v1/recommendations
type recommendRequest struct {
	Query   string         `json:"query" validate:"required"`
	UserID  *int64         `json:"user_id" validate:"omitempty,gt=0"`
	Filters map[string]any `json:"filters"`
	Limit   *int           `json:"limit" validate:"omitempty,min=0"` // 超过 engine.max_limit 时由引擎截断
}

// feedbackRequest POST /api/v1/recommendations/feedback
type feedbackRequest struct {
	QueryID      string `json:"query_id" validate:"required"`
	UserID       *int64 `json:"user_id" validate:"omitempty,gt=0"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	FeedbackText string `json:"feedback_text" validate:"max=2000"`

	// ItemRatings 物品 ID（JSON 对象的 key 为字符串）-> 评分
	ItemRatings map[string]int `json:"item_ratings" validate:"omitempty,dive,keys,numeric,endkeys,min=1,max=5"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Items []*core.Item `json:"items"`
	Total int64        `json:"total"`
}
