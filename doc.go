// Package hybridrec 是一个混合推荐服务：对自由文本查询，融合语义检索、协同过滤与内容匹配三路信号，
// 并为每条结果生成解释。
//
// 设计要点：
// - Pipeline-first: 召回（三路并发 fan-out）→ 融合排序 → 解释，均为 pipeline.Node
// - Labels-first: 候选携带来源 label，分数拆解与解释都基于它们
// - 依赖可替换: 文本理解、向量检索、目录、行为日志与审计都是 core 中的接口
package hybridrec

import (
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pipeline"
)

// 轻量 facade：便于直接 import "hybridrec" 使用核心抽象。
type (
	Engine         = engine.Engine
	Deps           = engine.Deps
	Config         = engine.Config
	Request        = engine.Request
	Result         = engine.Result
	Recommendation = engine.Recommendation
	Feedback       = engine.Feedback
)

type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindRank        = pipeline.KindRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建推荐引擎，见 engine.New。
func New(cfg Config, deps Deps) (*Engine, error) {
	return engine.New(cfg, deps)
}

// DefaultConfig 见 engine.DefaultConfig。
func DefaultConfig() Config {
	return engine.DefaultConfig()
}
