package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

const intentStatsKey = "stats:intents"

// SubmitFeedback 把评分与反馈附加到审计记录；给出用户时，逐个物品评分写入行为日志。
func (e *Engine) SubmitFeedback(ctx context.Context, fb Feedback) error {
	if fb.QueryID == "" {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "query_id is required")
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "rating must be between 1 and 5")
	}
	for itemID, r := range fb.ItemRatings {
		if r < 1 || r > 5 {
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				fmt.Sprintf("rating for item %d must be between 1 and 5", itemID))
		}
	}

	if err := e.deps.Audit.AttachFeedback(ctx, fb.QueryID, fb.Rating, fb.Text); err != nil {
		return fmt.Errorf("attach feedback: %w", err)
	}
	if fb.UserID == nil || len(fb.ItemRatings) == 0 {
		return nil
	}

	itemIDs := make([]int64, 0, len(fb.ItemRatings))
	for id := range fb.ItemRatings {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
	for _, id := range itemIDs {
		rating := fb.ItemRatings[id]
		in := &core.Interaction{
			UserID:   *fb.UserID,
			ItemID:   id,
			Type:     core.InteractionRating,
			Rating:   &rating,
			Feedback: fb.Text,
		}
		if err := e.deps.Interactions.Append(ctx, in); err != nil {
			return fmt.Errorf("record rating for item %d: %w", id, err)
		}
	}
	return nil
}

// GetItem 按 ID 读取物品，不存在时返回 core.ErrItemNotFound。
func (e *Engine) GetItem(ctx context.Context, id int64) (*core.Item, error) {
	return e.deps.Catalog.GetItem(ctx, id)
}

// SearchItems 分页检索目录；没有结果不是错误。
func (e *Engine) SearchItems(ctx context.Context, q core.CatalogQuery) (*core.ItemPage, error) {
	if q.Offset < 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "offset must not be negative")
	}
	switch {
	case q.Limit <= 0:
		q.Limit = e.cfg.SearchDefaultLimit
	case q.Limit > e.cfg.SearchMaxLimit:
		q.Limit = e.cfg.SearchMaxLimit
	}
	return e.deps.Catalog.QueryItems(ctx, q)
}

// ListCategories 返回全部分类
func (e *Engine) ListCategories(ctx context.Context) ([]core.Category, error) {
	return e.deps.Catalog.ListCategories(ctx)
}

// recordIntent 累计意图出现次数，失败只打日志。
func (e *Engine) recordIntent(ctx context.Context, intent string) {
	if e.deps.Stats == nil || intent == "" {
		return
	}
	if _, err := e.deps.Stats.ZIncrBy(ctx, intentStatsKey, 1, intent); err != nil {
		e.logger.Debug().Err(err).Msg("record intent failed")
	}
}

// IntentStats 返回出现次数最多的 n 个意图。
func (e *Engine) IntentStats(ctx context.Context, n int) ([]IntentCount, error) {
	if e.deps.Stats == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "intent stats are not enabled")
	}
	if n <= 0 {
		n = 10
	}
	intents, err := e.deps.Stats.ZRange(ctx, intentStatsKey, 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("read intent stats: %w", err)
	}
	out := make([]IntentCount, 0, len(intents))
	for _, intent := range intents {
		count, err := e.deps.Stats.ZScore(ctx, intentStatsKey, intent)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("read intent %s: %w", intent, err)
		}
		out = append(out, IntentCount{Intent: intent, Count: count})
	}
	return out, nil
}

// Health 检查实现了 core.Pinger 的依赖；任一依赖不可用时状态为 degraded。
func (e *Engine) Health(ctx context.Context) Health {
	components := map[string]any{
		"nlp":          e.deps.NLP,
		"vector":       e.deps.Vector,
		"catalog":      e.deps.Catalog,
		"interactions": e.deps.Interactions,
		"audit":        e.deps.Audit,
		"stats":        e.deps.Stats,
	}
	h := Health{Status: "healthy", Components: make(map[string]string)}
	for name, c := range components {
		p, ok := c.(core.Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			h.Status = "degraded"
			h.Components[name] = err.Error()
			continue
		}
		h.Components[name] = "ok"
	}
	return h
}
