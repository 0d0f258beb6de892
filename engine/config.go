package engine

import (
	"errors"
	"fmt"
	"time"
)

// Config 推荐编排配置
type Config struct {
	// DefaultLimit 未指定或为负数时的返回条数
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit 返回条数上限，超过时截断到上限
	MaxLimit int `koanf:"max_limit"`

	// Sources 启用的召回源，按顺序 fan-out
	Sources []string `koanf:"sources"`

	// RecallTimeout 每一路召回的超时时间
	RecallTimeout time.Duration `koanf:"recall_timeout"`

	// MaxConcurrent 召回最大并发数（0 表示不限制）
	MaxConcurrent int `koanf:"max_concurrent"`

	// 各路召回的超量拉取倍数
	SemanticMultiplier      int `koanf:"semantic_multiplier"`
	CollaborativeMultiplier int `koanf:"collaborative_multiplier"`
	ContentMultiplier       int `koanf:"content_multiplier"`

	// Collection 语义召回使用的向量集合
	Collection string `koanf:"collection"`

	// AuditTimeout 写审计记录的超时时间，与请求的取消解耦
	AuditTimeout time.Duration `koanf:"audit_timeout"`

	// SearchDefaultLimit / SearchMaxLimit 目录检索的分页大小
	SearchDefaultLimit int `koanf:"search_default_limit"`
	SearchMaxLimit     int `koanf:"search_max_limit"`
}

// DefaultConfig 默认编排配置
func DefaultConfig() Config {
	return Config{
		DefaultLimit:            10,
		MaxLimit:                50,
		Sources:                 []string{SourceSemantic, SourceCollaborative, SourceContent},
		RecallTimeout:           2 * time.Second,
		SemanticMultiplier:      3,
		CollaborativeMultiplier: 2,
		ContentMultiplier:       2,
		AuditTimeout:            2 * time.Second,
		SearchDefaultLimit:      20,
		SearchMaxLimit:          100,
	}
}

// Validate 检查配置取值
func (c Config) Validate() error {
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 {
		return errors.New("engine: default_limit and max_limit must be positive")
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("engine: max_limit (%d) must be >= default_limit (%d)", c.MaxLimit, c.DefaultLimit)
	}
	if c.SearchDefaultLimit <= 0 || c.SearchMaxLimit < c.SearchDefaultLimit {
		return errors.New("engine: search limits must be positive and max >= default")
	}
	if c.RecallTimeout < 0 || c.AuditTimeout < 0 {
		return errors.New("engine: timeouts must not be negative")
	}
	if len(c.Sources) == 0 {
		return errors.New("engine: at least one recall source is required")
	}
	for _, name := range c.Sources {
		if !sourceRegistered(name) {
			return fmt.Errorf("engine: unsupported recall source %q (supported: %v)", name, SupportedSources())
		}
	}
	return nil
}

// limit 归一化请求条数：0 保留（返回空结果），负数取默认值，超过上限取上限。
func (c Config) limit(n int) int {
	switch {
	case n < 0:
		return c.DefaultLimit
	case n > c.MaxLimit:
		return c.MaxLimit
	default:
		return n
	}
}
