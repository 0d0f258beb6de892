package rank

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// Hybrid 是融合排序 Node：把各路召回结果按物品合并，加权融合后排序截断。
//
// 流程：
//  1. 按 ItemID 合并，同一物品同一信号出现多次时后者覆盖前者
//  2. 融合分 = Σ 信号分 × 权重（缺失信号记 0）
//  3. 物品评分 > PopularityThreshold 时融合分 × PopularityBoost（可略超 1.0）
//  4. 置信度 = 非零信号数 / 3
//  5. 融合分降序，相同按 ItemID 升序
//  6. 丢弃目录中已不存在的物品，截断到 Limit
//
// 热度加权需要物品评分，因此合并后一次批量读取全部物品；读取失败时返回空结果。
type Hybrid struct {
	Catalog core.CatalogStore
	Policy  core.Policy
	Logger  zerolog.Logger
}

func (n *Hybrid) Name() string        { return "rank.hybrid" }
func (n *Hybrid) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Hybrid) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Limit <= 0 || len(candidates) == 0 {
		return []*core.Candidate{}, nil
	}
	policy := n.Policy.OrDefault()

	merged := Merge(candidates)
	ids := make([]int64, len(merged))
	for i, c := range merged {
		ids[i] = c.ItemID
	}
	items, err := n.Catalog.GetItems(ctx, ids)
	if err != nil {
		n.Logger.Warn().Int("candidates", len(ids)).Err(err).Msg("item batch read failed, returning no recommendations")
		return []*core.Candidate{}, nil
	}

	out := make([]*core.Candidate, 0, len(merged))
	for _, c := range merged {
		it, ok := items[c.ItemID]
		if !ok || it == nil {
			continue
		}
		c.Item = it
		c.Score = Fuse(c.Scores, it.Rating, policy)
		c.Confidence = Confidence(c.Scores)
		c.PutLabel("rank_type", utils.Label{Value: "hybrid", Source: "rank"})
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > rctx.Limit {
		out = out[:rctx.Limit]
	}
	return out, nil
}

// Merge 按 ItemID 合并候选，保留首次出现的顺序；Labels 按默认规则累积。
// 单信号候选按 Source 无条件覆盖，得分为 0 时同样覆盖。
func Merge(candidates []*core.Candidate) []*core.Candidate {
	index := make(map[int64]*core.Candidate, len(candidates))
	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		m, ok := index[c.ItemID]
		if !ok {
			m = &core.Candidate{ItemID: c.ItemID, Labels: make(map[string]utils.Label)}
			index[c.ItemID] = m
			out = append(out, m)
		}
		if c.Source != "" {
			m.Scores.Set(c.Source, c.Scores.Get(c.Source))
		} else {
			m.Scores.Merge(c.Scores)
		}
		for k, lbl := range c.Labels {
			m.PutLabel(k, lbl)
		}
	}
	return out
}

// Fuse 计算融合分。
func Fuse(scores core.ScoreBreakdown, rating float64, policy core.Policy) float64 {
	var fused float64
	for _, sig := range core.Signals {
		fused += scores.Get(sig) * policy.Weight(sig)
	}
	if rating > policy.PopularityThreshold {
		fused *= policy.PopularityBoost
	}
	return fused
}

// Confidence 命中信号数 / 3，最大为 1。
func Confidence(scores core.ScoreBreakdown) float64 {
	c := float64(scores.NonZero()) / float64(len(core.Signals))
	if c > 1 {
		return 1
	}
	return c
}
