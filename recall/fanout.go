package recall

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// Observer 在每一路召回结束后回调（用于打点）。
type Observer func(res core.RecallResult, elapsed time.Duration)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
//
// 容错：
//   - 单路召回出错、超时或 panic 只影响该路，记为 RecallFailed 并打 Warn 日志
//   - 其余召回源照常返回，整次推荐不失败
//
// 合并：各路结果按 Sources 顺序拼接（不去重，由排序阶段按物品合并），保证结果确定。
// 每一路的 RecallResult 在全部召回结束后写入 rctx.RecallResults。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Logger        zerolog.Logger
	Observer      Observer
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个召回源只写自己的槽位，无需加锁
	results := make([]core.RecallResult, len(n.Sources))
	eg, _ := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			start := time.Now()
			results[i] = n.run(ctx, rctx, src)
			if n.Observer != nil {
				n.Observer(results[i], time.Since(start))
			}
			return nil
		})
	}
	// 召回错误不会向上传递，Wait 只用于汇合
	_ = eg.Wait()

	var all []*core.Candidate
	for i, res := range results {
		if res.Status == core.RecallFailed {
			n.Logger.Warn().Str("source", res.Source).Err(res.Err).Msg("recall source failed, continuing without it")
		}
		for _, c := range res.Candidates {
			// 记录召回来源 label，方便 explain / 观测
			c.PutLabel("recall_source", utils.Label{Value: res.Source, Source: "recall"})
			c.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
		}
		all = append(all, res.Candidates...)
	}
	rctx.RecallResults = results
	return all, nil
}

// run 执行单路召回：超时控制 + panic 恢复 + 结果分类。
func (n *Fanout) run(ctx context.Context, rctx *core.RecommendContext, src Source) (res core.RecallResult) {
	res.Source = src.Name()

	recallCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res.Status = core.RecallFailed
			res.Candidates = nil
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	candidates, err := src.Recall(recallCtx, rctx)
	candidates = compact(candidates)
	switch {
	case err != nil:
		res.Status = core.RecallFailed
		res.Err = err
	case len(candidates) == 0:
		res.Status = core.RecallEmpty
	default:
		res.Status = core.RecallOK
		res.Candidates = candidates
	}
	return res
}

func compact(in []*core.Candidate) []*core.Candidate {
	out := in[:0]
	for _, c := range in {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
