package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

// Semantic 是语义召回源：用查询向量检索向量库，过滤条件下推给检索服务。
// 检索服务返回的相似度已归一化，这里只裁剪到 [0, 1]。
type Semantic struct {
	Vector core.VectorService

	// Collection 向量集合名称，为空时使用检索服务默认集合
	Collection string

	// Multiplier 召回条数 = Limit × Multiplier（默认 3）
	Multiplier int
}

func (s *Semantic) Name() string { return string(core.SignalSemantic) }

func (s *Semantic) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	embedding := rctx.Embedding()
	if s.Vector == nil || len(embedding) == 0 {
		return nil, nil
	}
	multiplier := s.Multiplier
	if multiplier <= 0 {
		multiplier = 3
	}
	topK := overFetch(rctx, multiplier)
	if topK == 0 {
		return nil, nil
	}

	res, err := s.Vector.Search(ctx, &core.VectorSearchRequest{
		Collection: s.Collection,
		Vector:     embedding,
		TopK:       topK,
		Filters:    rctx.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if res == nil {
		return nil, nil
	}

	out := make([]*core.Candidate, 0, len(res.Items))
	for _, hit := range res.Items {
		out = append(out, core.NewCandidate(hit.ItemID, core.SignalSemantic, hit.Score))
	}
	return out, nil
}
