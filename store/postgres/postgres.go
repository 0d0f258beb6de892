// Package postgres 是基于 gorm + PostgreSQL 的目录、行为日志、用户与审计存储。
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	LogSQL          bool          `koanf:"log_sql"`
}

// Open 连接数据库并按需建表。
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	logLevel := logger.Silent
	if cfg.LogSQL {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate 建表/补齐列
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Category{}, &Item{}, &User{}, &Interaction{}, &Choice{}); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Stores 把各个仓储组合在一起
type Stores struct {
	DB           *gorm.DB
	Catalog      *CatalogRepository
	Interactions *InteractionRepository
	Users        *UserRepository
	Audit        *AuditRepository
}

// NewStores 基于同一个连接创建全部仓储
func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		DB:           db,
		Catalog:      NewCatalogRepository(db),
		Interactions: NewInteractionRepository(db),
		Users:        NewUserRepository(db),
		Audit:        NewAuditRepository(db),
	}
}

// Close 关闭连接池
func (s *Stores) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
