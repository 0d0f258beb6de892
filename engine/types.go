package engine

import (
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// Request 推荐请求
type Request struct {
	// UserID 为 nil 表示匿名请求
	UserID *int64

	// Query 查询文本，不能为空
	Query string

	// Filters 请求级过滤条件，与文本理解抽取的条件冲突时以此为准
	Filters map[string]any

	// Limit 返回条数：0 返回空结果，负数取默认值，超过上限取上限
	Limit int
}

// Recommendation 单条推荐结果
type Recommendation struct {
	ItemID      int64               `json:"item_id"`
	Item        *core.Item          `json:"item"`
	Score       float64             `json:"score"`
	Confidence  float64             `json:"confidence"`
	Scores      core.ScoreBreakdown `json:"scores"`
	Explanation string              `json:"explanation"`
}

// Result 推荐结果
type Result struct {
	QueryID          string           `json:"query_id"`
	OriginalQuery    string           `json:"original_query"`
	ProcessedQuery   string           `json:"processed_query"`
	Intent           string           `json:"intent"`
	IntentConfidence float64          `json:"intent_confidence"`
	Recommendations  []Recommendation `json:"recommendations"`
	TotalFound       int              `json:"total_found"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
	Explanation      string           `json:"explanation"`
}

// Persisted 审计记录是否已持久化
func (r *Result) Persisted() bool {
	return !strings.HasPrefix(r.QueryID, LocalQueryIDPrefix)
}

// Feedback 对一次推荐的反馈
type Feedback struct {
	QueryID string

	// UserID 可选；给出时逐个物品评分写入行为日志
	UserID *int64

	// Rating 整体评分 1 - 5
	Rating int
	Text   string

	// ItemRatings 物品 ID -> 评分 1 - 5
	ItemRatings map[int64]int
}

// IntentCount 意图出现次数
type IntentCount struct {
	Intent string  `json:"intent"`
	Count  float64 `json:"count"`
}

// Health 健康检查结果
type Health struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
