package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushteam/hybridrec/core"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound, "store: user not found")

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) GetUser(ctx context.Context, id int64) (*core.User, error) {
	var u User
	err := r.DB.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u.toDomain(), nil
}

// UpsertUser 写入或覆盖用户
func (r *UserRepository) UpsertUser(ctx context.Context, u *core.User) error {
	row := &User{ID: u.ID, Username: u.Username, Email: u.Email, Preferences: u.Preferences, CreatedAt: u.CreatedAt}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

var _ core.UserStore = (*UserRepository)(nil)
