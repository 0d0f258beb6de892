package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Source 表示一路召回信号（语义/协同/内容）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
//
// 约定：
//   - 每个候选只填充本路信号的得分，取值 [0, 1]
//   - 没有结果时返回空列表，不返回错误
//   - 只读 RecommendContext，不写入
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}

// overFetch 计算本路召回条数：最终条数 × 倍数。
func overFetch(rctx *core.RecommendContext, multiplier int) int {
	if rctx == nil || rctx.Limit <= 0 {
		return 0
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return rctx.Limit * multiplier
}
