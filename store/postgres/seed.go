package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rushteam/hybridrec/store"
)

// Load 在一个事务里导入种子数据；物品、分类与用户按主键覆盖，行为日志追加。
func (s *Stores) Load(ctx context.Context, fx *store.Fixture) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := NewCatalogRepository(tx)
		for _, c := range fx.Categories {
			if err := catalog.UpsertCategory(ctx, c); err != nil {
				return err
			}
		}
		for i := range fx.Items {
			if err := catalog.UpsertItem(ctx, &fx.Items[i]); err != nil {
				return err
			}
		}
		users := NewUserRepository(tx)
		for i := range fx.Users {
			if err := users.UpsertUser(ctx, &fx.Users[i]); err != nil {
				return err
			}
		}
		interactions := NewInteractionRepository(tx)
		for i := range fx.Interactions {
			if err := interactions.Append(ctx, &fx.Interactions[i]); err != nil {
				return fmt.Errorf("append interaction %d: %w", i, err)
			}
		}
		return nil
	})
}
