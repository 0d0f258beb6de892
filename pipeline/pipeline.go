package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// Hook 在每个 Node 执行完成后回调，用于按阶段打点。
type Hook func(node Node, elapsed time.Duration, out int, err error)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：recall -> rank -> postprocess。
type Pipeline struct {
	Nodes []Node
	Hook  Hook
}

// Run 依次执行所有 Node；任一 Node 返回错误时中止。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := candidates
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if p.Hook != nil {
			p.Hook(node, time.Since(start), len(next), err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
