package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushteam/hybridrec/core"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		DB: db,
	}
}

func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var item Item
	err := r.DB.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, core.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return item.toDomain(), nil
}

func (r *CatalogRepository) GetItems(ctx context.Context, ids []int64) (map[int64]*core.Item, error) {
	out := make(map[int64]*core.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var items []Item
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	for i := range items {
		out[items[i].ID] = items[i].toDomain()
	}
	return out, nil
}

func (r *CatalogRepository) QueryItems(ctx context.Context, q core.CatalogQuery) (*core.ItemPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	base := r.DB.WithContext(ctx).Model(&Item{})
	if len(q.CategoryIDs) > 0 {
		base = base.Where("category_id IN ?", q.CategoryIDs)
	}
	if q.MinPrice != nil {
		base = base.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		base = base.Where("price <= ?", *q.MaxPrice)
	}
	if q.MinRating != nil {
		base = base.Where("rating >= ?", *q.MinRating)
	}
	if q.AvailableOnly {
		base = base.Where("is_available = ?", true)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	tx := base.Order(orderClause(q.OrderBy))
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var items []Item
	if err := tx.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	page := &core.ItemPage{Items: make([]*core.Item, 0, len(items)), Total: total}
	for i := range items {
		page.Items = append(page.Items, items[i].toDomain())
	}
	return page, nil
}

// orderClause 评分降序时评分相同按 ID 升序，与内存实现一致
func orderClause(order core.CatalogOrder) clause.OrderBy {
	id := clause.OrderByColumn{Column: clause.Column{Name: "id"}}
	if order == core.OrderByRatingDesc {
		return clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "rating"}, Desc: true},
			id,
		}}
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{id}}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	var rows []Category
	if err := r.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// UpsertItem 写入或覆盖物品（导入种子数据时使用）
func (r *CatalogRepository) UpsertItem(ctx context.Context, it *core.Item) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(itemFromDomain(it)).Error
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// UpsertCategory 写入或覆盖分类
func (r *CatalogRepository) UpsertCategory(ctx context.Context, c core.Category) error {
	row := &Category{ID: c.ID, Name: c.Name, Description: c.Description}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error { return ping(ctx, r.DB) }

var (
	_ core.CatalogStore = (*CatalogRepository)(nil)
	_ core.Pinger       = (*CatalogRepository)(nil)
)
