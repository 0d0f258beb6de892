package pipeline

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：生成候选集
	KindRank        Kind = "rank"        // 排序阶段：融合打分、排序、截断
	KindPostProcess Kind = "postprocess" // 后处理阶段：生成解释等结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 candidates -> 输出 candidates”的形态，召回节点忽略输入，排序节点合并并截断。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
