package core

import "github.com/rushteam/hybridrec/pkg/utils"

// RecommendContext 承载一次推荐请求的只读输入，贯穿整个 Pipeline 透传。
//
// 并发召回时各召回源共享同一个 RecommendContext，只读不写；
// 召回结束后由 Fanout 在单线程中写入 RecallResults。
type RecommendContext struct {
	// UserID 为 nil 表示匿名请求
	UserID *int64

	// Query 原始查询文本
	Query string

	// NLP 文本理解结果（Embedding 用于语义召回）
	NLP *NLPResult

	// Filters 合并后的过滤条件（请求条件优先于 NLP 抽取条件）
	Filters Filters

	// User 用户画像，匿名或构建失败时为空画像，不为 nil
	User *UserProfile

	// Limit 最终返回条数
	Limit int

	// Labels 是请求级标签，例如 profile=empty
	Labels map[string]utils.Label

	// Params 请求级扩展参数
	Params map[string]any

	// RecallResults 每一路召回的执行结果，按召回源顺序
	RecallResults []RecallResult
}

// RecallStatus 召回结果状态：有数据 / 无数据 / 失败。
type RecallStatus string

const (
	RecallOK     RecallStatus = "ok"
	RecallEmpty  RecallStatus = "empty"
	RecallFailed RecallStatus = "failed"
)

// RecallResult 单路召回的结果。失败时 Candidates 为空，Err 记录原因。
type RecallResult struct {
	Source     string
	Status     RecallStatus
	Candidates []*Candidate
	Err        error
}

// Embedding 返回查询向量，没有时返回 nil
func (rctx *RecommendContext) Embedding() []float64 {
	if rctx == nil || rctx.NLP == nil {
		return nil
	}
	return rctx.NLP.Embedding
}

// Profile 返回用户画像，保证不为 nil。
func (rctx *RecommendContext) Profile() *UserProfile {
	if rctx.User != nil {
		return rctx.User
	}
	var id int64
	if rctx.UserID != nil {
		id = *rctx.UserID
	}
	return NewUserProfile(id)
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}
