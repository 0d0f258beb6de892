package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// MemoryCatalog 是内存实现的物品目录，价格/评分条件通过 CEL 谓词求值。
type MemoryCatalog struct {
	mu         sync.RWMutex
	items      map[int64]*core.Item
	categories map[int64]core.Category
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items:      make(map[int64]*core.Item),
		categories: make(map[int64]core.Category),
	}
}

// PutItem 写入或覆盖物品（目录管理方使用）
func (c *MemoryCatalog) PutItem(it *core.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *it
	c.items[it.ID] = &cp
}

// PutCategory 写入或覆盖分类
func (c *MemoryCatalog) PutCategory(cat core.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[cat.ID] = cat
}

func (c *MemoryCatalog) GetItem(ctx context.Context, id int64) (*core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, core.ErrItemNotFound)
	}
	cp := *it
	return &cp, nil
}

func (c *MemoryCatalog) GetItems(ctx context.Context, ids []int64) (map[int64]*core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int64]*core.Item, len(ids))
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			cp := *it
			out[id] = &cp
		}
	}
	return out, nil
}

func (c *MemoryCatalog) QueryItems(ctx context.Context, q core.CatalogQuery) (*core.ItemPage, error) {
	pred, err := dsl.FromFilters(q.PriceRatingFilters())
	if err != nil {
		return nil, fmt.Errorf("build catalog predicate: %w", err)
	}
	categories := make(map[int64]struct{}, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		categories[id] = struct{}{}
	}

	c.mu.RLock()
	matched := make([]*core.Item, 0)
	for _, it := range c.items {
		if q.AvailableOnly && !it.Available {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[it.CategoryID]; !ok {
				continue
			}
		}
		ok, err := pred.MatchItem(it)
		if err != nil {
			c.mu.RUnlock()
			return nil, fmt.Errorf("evaluate %q on item %d: %w", pred.Expr, it.ID, err)
		}
		if ok {
			cp := *it
			matched = append(matched, &cp)
		}
	}
	c.mu.RUnlock()

	sortItems(matched, q.OrderBy)

	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return &core.ItemPage{Items: matched, Total: total}, nil
}

// sortItems 评分降序时评分相同按 ID 升序；默认按 ID 升序。
func sortItems(items []*core.Item, order core.CatalogOrder) {
	sort.Slice(items, func(i, j int) bool {
		if order == core.OrderByRatingDesc && items[i].Rating != items[j].Rating {
			return items[i].Rating > items[j].Rating
		}
		return items[i].ID < items[j].ID
	})
}

func (c *MemoryCatalog) ListCategories(ctx context.Context) ([]core.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ core.CatalogStore = (*MemoryCatalog)(nil)
