package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rushteam/hybridrec/core"
)

type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{
		DB: db,
	}
}

func (r *AuditRepository) Save(ctx context.Context, rec *core.AuditRecord) error {
	if rec == nil || rec.QueryID == "" {
		return core.NewDomainError(core.ModuleAudit, core.ErrorCodeInvalidInput, "audit: query id is required")
	}
	if err := r.DB.WithContext(ctx).Create(choiceFromDomain(rec)).Error; err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

func (r *AuditRepository) AttachFeedback(ctx context.Context, queryID string, rating int, text string) error {
	result := r.DB.WithContext(ctx).Model(&Choice{}).Where("query_id = ?", queryID).Updates(map[string]any{
		"user_feedback": rating,
		"feedback_text": text,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to attach feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("query %s: %w", queryID, core.ErrQueryNotFound)
	}
	return nil
}

func (r *AuditRepository) Get(ctx context.Context, queryID string) (*core.AuditRecord, error) {
	var c Choice
	err := r.DB.WithContext(ctx).Where("query_id = ?", queryID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("query %s: %w", queryID, core.ErrQueryNotFound)
		}
		return nil, fmt.Errorf("failed to find audit record: %w", err)
	}
	return c.toDomain(), nil
}

func (r *AuditRepository) Ping(ctx context.Context) error { return ping(ctx, r.DB) }

var _ core.AuditStore = (*AuditRepository)(nil)
