package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rushteam/hybridrec/core"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{
		DB: db,
	}
}

func (r *InteractionRepository) Append(ctx context.Context, in *core.Interaction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if in == nil || !in.Type.Valid() {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "invalid interaction")
	}

	row := interactionFromDomain(in)
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now()
	}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepository) ListByUser(ctx context.Context, userID int64, q core.InteractionQuery) ([]core.Interaction, error) {
	return r.list(ctx, r.DB.WithContext(ctx).Where("user_id = ?", userID), q)
}

func (r *InteractionRepository) ListByItem(ctx context.Context, itemID int64, q core.InteractionQuery) ([]core.Interaction, error) {
	return r.list(ctx, r.DB.WithContext(ctx).Where("item_id = ?", itemID), q)
}

func (r *InteractionRepository) list(ctx context.Context, tx *gorm.DB, q core.InteractionQuery) ([]core.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		tx = tx.Where("interaction_type IN ?", types)
	}
	if q.NewestFirst {
		tx = tx.Order("timestamp DESC, id DESC")
	} else {
		tx = tx.Order("timestamp ASC, id ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []Interaction
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	out := make([]core.Interaction, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

var _ core.InteractionStore = (*InteractionRepository)(nil)
