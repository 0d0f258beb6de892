// Package config 加载服务配置：结构体默认值 → YAML 文件（可选）→ 环境变量，后者覆盖前者。
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rushteam/hybridrec/audit"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/nlp"
	"github.com/rushteam/hybridrec/pkg/breaker"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/store"
	"github.com/rushteam/hybridrec/store/postgres"
	"github.com/rushteam/hybridrec/vector"
)

// 后端类型
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMilvus   = "milvus"
	BackendRedis    = "redis"
)

// Config 服务配置
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Log     logging.Config `koanf:"log"`
	Engine  engine.Config  `koanf:"engine"`
	Policy  core.Policy    `koanf:"policy"`
	NLP     NLPConfig      `koanf:"nlp"`
	Vector  VectorConfig   `koanf:"vector"`
	Store   StoreConfig    `koanf:"store"`
	Cache   CacheConfig    `koanf:"cache"`
	Kafka   KafkaConfig    `koanf:"kafka"`
	Metrics MetricsConfig  `koanf:"metrics"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit 每个客户端 IP 每个窗口的请求数，0 表示不限流
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// NLPConfig 文本理解服务
type NLPConfig struct {
	Endpoint string         `koanf:"endpoint"`
	Timeout  time.Duration  `koanf:"timeout"`
	Auth     nlp.AuthConfig `koanf:"auth"`
	Breaker  breaker.Config `koanf:"breaker"`

	// CacheTTL 解析结果的缓存时间，0 表示不缓存
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// VectorConfig 向量检索后端
type VectorConfig struct {
	Backend   string              `koanf:"backend"`
	Dimension int                 `koanf:"dimension"`
	Milvus    vector.MilvusConfig `koanf:"milvus"`
}

// StoreConfig 目录、行为日志与审计存储
type StoreConfig struct {
	Backend string `koanf:"backend"`

	// Fixture 启动时导入的 YAML 数据（memory 后端）
	Fixture string `koanf:"fixture"`

	Postgres postgres.Config `koanf:"postgres"`
}

// CacheConfig 键值缓存（NLP 结果、意图统计）
type CacheConfig struct {
	Backend string            `koanf:"backend"`
	Redis   store.RedisConfig `koanf:"redis"`
}

// KafkaConfig 审计事件镜像
type KafkaConfig struct {
	Enabled bool              `koanf:"enabled"`
	Audit   audit.KafkaConfig `koanf:"audit"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Default 返回全部默认值
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Engine: engine.DefaultConfig(),
		Policy: core.DefaultPolicy(),
		NLP: NLPConfig{
			Endpoint: "http://localhost:8001",
			Timeout:  5 * time.Second,
			Breaker:  breaker.DefaultConfig(),
			CacheTTL: 10 * time.Minute,
		},
		Vector: VectorConfig{
			Backend:   BackendMemory,
			Dimension: 384,
			Milvus:    vector.DefaultMilvusConfig(),
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Postgres: postgres.Config{
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
				AutoMigrate:     true,
			},
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			Redis: store.RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "hybridrec:",
			},
		},
		Kafka: KafkaConfig{
			Audit: audit.KafkaConfig{
				Brokers:      []string{"localhost:9092"},
				Topic:        "hybridrec.audit",
				RequiredAcks: 1,
				Compression:  "snappy",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("server.rate_limit_window must be positive"))
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.NLP.Endpoint == "" {
		errs = append(errs, errors.New("nlp.endpoint is required"))
	}
	if err := oneOf("vector.backend", c.Vector.Backend, BackendMemory, BackendMilvus); err != nil {
		errs = append(errs, err)
	}
	if c.Vector.Backend == BackendMemory && c.Vector.Dimension <= 0 {
		errs = append(errs, errors.New("vector.dimension must be positive"))
	}
	if err := oneOf("store.backend", c.Store.Backend, BackendMemory, BackendPostgres); err != nil {
		errs = append(errs, err)
	}
	if c.Store.Backend == BackendPostgres && c.Store.Postgres.DSN == "" {
		errs = append(errs, errors.New("store.postgres.dsn is required for the postgres backend"))
	}
	if err := oneOf("cache.backend", c.Cache.Backend, BackendMemory, BackendRedis); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Audit.Brokers) == 0 || c.Kafka.Audit.Topic == "") {
		errs = append(errs, errors.New("kafka.audit.brokers and kafka.audit.topic are required when kafka is enabled"))
	}
	return errors.Join(errs...)
}

func oneOf(key, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (supported: %v)", key, v, allowed)
}
