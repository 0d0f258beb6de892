// Package explain 为排序后的候选生成推荐理由。
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// GenericExplanation 生成理由出错时使用的固定文案。
const GenericExplanation = "Recommended based on your query and preferences."

const fallbackClause = "recommended by the system"

// Explainer 按固定顺序检查各项条件，每满足一项追加一个子句：
//
//	semantic > ExplainSemantic            -> matches your query
//	collaborative > ExplainCollaborative  -> similar users also chose this
//	content > ExplainContent              -> fits your stated criteria
//	rating > HighRating                   -> high rating (4.2)
//	price <= avg × BudgetMultiplier       -> fits your budget
//
// 一项都不满足时使用兜底子句。
type Explainer struct {
	Policy core.Policy
}

// Explain 生成单个候选的推荐理由，不会失败。
func (e *Explainer) Explain(c *core.Candidate, profile *core.UserProfile) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = GenericExplanation, fmt.Errorf("explain item: panic: %v", r)
		}
	}()
	policy := e.Policy.OrDefault()

	var clauses []string
	if c.Scores.Semantic > policy.ExplainSemantic {
		clauses = append(clauses, "matches your query")
	}
	if c.Scores.Collaborative > policy.ExplainCollaborative {
		clauses = append(clauses, "similar users also chose this")
	}
	if c.Scores.Content > policy.ExplainContent {
		clauses = append(clauses, "fits your stated criteria")
	}
	if it := c.Item; it != nil {
		if it.Rating > policy.HighRating {
			clauses = append(clauses, fmt.Sprintf("high rating (%.1f)", it.Rating))
		}
		if profile != nil && profile.AvgPrice != nil && it.Price != nil &&
			*it.Price <= *profile.AvgPrice*policy.BudgetMultiplier {
			clauses = append(clauses, "fits your budget")
		}
	}
	if len(clauses) == 0 {
		clauses = append(clauses, fallbackClause)
	}
	return "Recommended because " + strings.Join(clauses, ", ") + ".", nil
}

// Node 是后处理 Node：为每个候选写入 Explanation。
type Node struct {
	Explainer *Explainer
	Logger    zerolog.Logger
}

func (n *Node) Name() string        { return "postprocess.explain" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	explainer := n.Explainer
	if explainer == nil {
		explainer = &Explainer{}
	}
	var profile *core.UserProfile
	if rctx != nil {
		profile = rctx.User
	}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		text, err := explainer.Explain(c, profile)
		if err != nil {
			n.Logger.Error().Int64("item_id", c.ItemID).Err(err).Msg("explanation failed, using generic text")
		}
		c.Explanation = text
	}
	return candidates, nil
}
