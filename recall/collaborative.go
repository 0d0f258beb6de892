package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// Collaborative 是基于用户的协同过滤召回源（User-based CF）。
//
// 核心思想："行为相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 取当前用户 like/purchase 过的物品（画像中的 Liked ∪ Purchased）
//  2. 反查这些物品的 like/purchase 记录，统计其他用户与当前用户的共同物品数
//  3. 共同物品数 >= MinSharedItems 的用户为相似用户，按共同数降序、用户 ID 升序，取前 MaxSimilarUsers 个
//  4. 收集相似用户 like/purchase 过的物品（有评分时要求 >= MinCorroboratingRating），排除当前用户已 like 的物品
//  5. 得分 = min(支持该物品的相似用户数 / CollaborativeDivisor, 1)
//
// 没有 like 记录的用户不参与协同过滤，直接返回空。
type Collaborative struct {
	Interactions core.InteractionStore
	Policy       core.Policy

	// Multiplier 召回条数 = Limit × Multiplier（默认 2）
	Multiplier int
}

func (r *Collaborative) Name() string { return string(core.SignalCollaborative) }

var positiveTypes = []core.InteractionType{core.InteractionLike, core.InteractionPurchase}

func (r *Collaborative) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	profile := rctx.Profile()
	if r.Interactions == nil || rctx.UserID == nil || len(profile.Liked) == 0 {
		return nil, nil
	}
	multiplier := r.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	limit := overFetch(rctx, multiplier)
	if limit == 0 {
		return nil, nil
	}
	policy := r.Policy.OrDefault()

	similar, err := r.similarUsers(ctx, profile, policy)
	if err != nil {
		return nil, err
	}
	if len(similar) == 0 {
		return nil, nil
	}

	// itemID -> 支持该物品的相似用户
	supporters := make(map[int64]map[int64]struct{})
	for _, userID := range similar {
		interactions, err := r.Interactions.ListByUser(ctx, userID, core.InteractionQuery{Types: positiveTypes})
		if err != nil {
			return nil, fmt.Errorf("list interactions of user %d: %w", userID, err)
		}
		for i := range interactions {
			in := &interactions[i]
			if !in.Type.Positive() || !in.RatedAtLeast(policy.MinCorroboratingRating) {
				continue
			}
			if profile.HasLiked(in.ItemID) {
				continue
			}
			if supporters[in.ItemID] == nil {
				supporters[in.ItemID] = make(map[int64]struct{})
			}
			supporters[in.ItemID][userID] = struct{}{}
		}
	}

	out := make([]*core.Candidate, 0, len(supporters))
	for itemID, users := range supporters {
		score := float64(len(users)) / policy.CollaborativeDivisor
		out = append(out, core.NewCandidate(itemID, core.SignalCollaborative, score))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scores.Collaborative != out[j].Scores.Collaborative {
			return out[i].Scores.Collaborative > out[j].Scores.Collaborative
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// similarUsers 返回相似用户 ID，按共同物品数降序、用户 ID 升序。
func (r *Collaborative) similarUsers(ctx context.Context, profile *core.UserProfile, policy core.Policy) ([]int64, error) {
	anchors := profile.Engaged()

	// userID -> 与当前用户共同 like/purchase 的物品
	shared := make(map[int64]map[int64]struct{})
	for itemID := range anchors {
		interactions, err := r.Interactions.ListByItem(ctx, itemID, core.InteractionQuery{Types: positiveTypes})
		if err != nil {
			return nil, fmt.Errorf("list interactions of item %d: %w", itemID, err)
		}
		for i := range interactions {
			in := &interactions[i]
			if in.UserID == profile.UserID || !in.Type.Positive() {
				continue
			}
			if shared[in.UserID] == nil {
				shared[in.UserID] = make(map[int64]struct{})
			}
			shared[in.UserID][itemID] = struct{}{}
		}
	}

	type userOverlap struct {
		userID int64
		count  int
	}
	overlaps := make([]userOverlap, 0, len(shared))
	for userID, items := range shared {
		if len(items) >= policy.MinSharedItems {
			overlaps = append(overlaps, userOverlap{userID: userID, count: len(items)})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].count != overlaps[j].count {
			return overlaps[i].count > overlaps[j].count
		}
		return overlaps[i].userID < overlaps[j].userID
	})
	if len(overlaps) > policy.MaxSimilarUsers {
		overlaps = overlaps[:policy.MaxSimilarUsers]
	}

	users := make([]int64, len(overlaps))
	for i, o := range overlaps {
		users[i] = o.userID
	}
	return users, nil
}
