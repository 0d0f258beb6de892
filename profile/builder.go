// Package profile 从行为日志推导用户画像。
//
// 画像每次请求现算，不落库：读取用户最近 N 条行为与自填偏好，得到
// 喜欢/购买集合、偏好分类与价格统计。
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

// Builder 构建用户画像。
type Builder struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	// Users 可选；为空时画像不带自填偏好
	Users core.UserStore

	Policy core.Policy
}

// Build 构建 userID 的画像。
// 用户不存在或没有行为时返回空画像，不是错误；存储错误原样返回，由调用方决定是否降级。
func (b *Builder) Build(ctx context.Context, userID int64) (*core.UserProfile, error) {
	policy := b.Policy.OrDefault()
	p := core.NewUserProfile(userID)

	if b.Users != nil {
		u, err := b.Users.GetUser(ctx, userID)
		switch {
		case err == nil:
			p.Preferences = u.Preferences
		case core.IsNotFound(err):
		default:
			return nil, fmt.Errorf("get user %d: %w", userID, err)
		}
	}

	interactions, err := b.Interactions.ListByUser(ctx, userID, core.InteractionQuery{
		Limit:       policy.ProfileHistory,
		NewestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list interactions of user %d: %w", userID, err)
	}
	if len(interactions) == 0 {
		return p, nil
	}

	positive := make([]core.Interaction, 0, len(interactions))
	for _, in := range interactions {
		switch in.Type {
		case core.InteractionLike:
			p.Liked[in.ItemID] = struct{}{}
		case core.InteractionPurchase:
			p.Purchased[in.ItemID] = struct{}{}
		default:
			continue
		}
		positive = append(positive, in)
	}
	if len(positive) == 0 {
		return p, nil
	}

	items, err := b.items(ctx, positive)
	if err != nil {
		return nil, err
	}
	p.PreferredCategories = preferredCategories(positive, items, policy.TopCategories)
	p.AvgPrice, p.MinPrice, p.MaxPrice = priceStats(positive, items)
	return p, nil
}

// items 一次批量读取行为涉及的物品
func (b *Builder) items(ctx context.Context, interactions []core.Interaction) (map[int64]*core.Item, error) {
	if b.Catalog == nil {
		return nil, errors.New("profile: catalog store is required")
	}
	seen := make(map[int64]struct{}, len(interactions))
	ids := make([]int64, 0, len(interactions))
	for _, in := range interactions {
		if _, ok := seen[in.ItemID]; ok {
			continue
		}
		seen[in.ItemID] = struct{}{}
		ids = append(ids, in.ItemID)
	}
	items, err := b.Catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// preferredCategories 按行为次数降序、分类 ID 升序取前 top 个分类。
// 每条行为计一次，同一物品多次 like/purchase 会重复计数。
func preferredCategories(interactions []core.Interaction, items map[int64]*core.Item, top int) []int64 {
	counts := make(map[int64]int)
	for _, in := range interactions {
		if it, ok := items[in.ItemID]; ok {
			counts[it.CategoryID]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	categories := make([]int64, 0, len(counts))
	for id := range counts {
		categories = append(categories, id)
	}
	sort.Slice(categories, func(i, j int) bool {
		ci, cj := counts[categories[i]], counts[categories[j]]
		if ci != cj {
			return ci > cj
		}
		return categories[i] < categories[j]
	})
	if top > 0 && len(categories) > top {
		categories = categories[:top]
	}
	return categories
}

// priceStats 统计有价格物品的均值/最小/最大值，没有数据时全部为 nil。
func priceStats(interactions []core.Interaction, items map[int64]*core.Item) (avg, lo, hi *float64) {
	var sum float64
	var n int
	for _, in := range interactions {
		it, ok := items[in.ItemID]
		if !ok || it.Price == nil {
			continue
		}
		price := *it.Price
		if n == 0 || price < *lo {
			lo = &price
		}
		if n == 0 || price > *hi {
			hi = &price
		}
		sum += price
		n++
	}
	if n == 0 {
		return nil, nil, nil
	}
	mean := sum / float64(n)
	return &mean, lo, hi
}
