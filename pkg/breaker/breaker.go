// Package breaker 封装 gobreaker，为外部依赖（NLP 服务、向量库）提供统一的熔断配置。
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Config 熔断配置
type Config struct {
	// MaxRequests 半开状态下允许通过的请求数
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval 闭合状态下计数清零的周期
	Interval time.Duration `koanf:"interval"`

	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `koanf:"timeout"`

	// ConsecutiveFailures 连续失败多少次后打开
	ConsecutiveFailures uint32 `koanf:"consecutive_failures"`
}

// DefaultConfig 默认熔断配置
func DefaultConfig() Config {
	return Config{
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// StateListener 状态变化回调（from / to 为 closed、half-open、open）
type StateListener func(name, from, to string)

// New 创建熔断器，状态变化时记录日志并回调 listener。
// 调用方取消（context.Canceled）既不计成功也不计失败。
func New[T any](name string, cfg Config, logger zerolog.Logger, listener StateListener) *gobreaker.CircuitBreaker[T] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultConfig().ConsecutiveFailures
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			if listener != nil {
				listener(name, from.String(), to.String())
			}
		},
	})
}

// IsRejected 请求是否被熔断器拒绝（打开或半开已满）
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
