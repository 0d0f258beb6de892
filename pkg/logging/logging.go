// Package logging 构建 zerolog 根 logger。
//
// 组件在构造时接收 zerolog.Logger，并通过 With().Str("component", ...) 派生子 logger；
// 不维护进程级全局 logger。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	// Level: trace, debug, info, warn, error（默认 info）
	Level string `koanf:"level"`

	// Format: json 或 console（默认 json）
	Format string `koanf:"format"`

	// Caller 是否输出调用位置
	Caller bool `koanf:"caller"`

	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-"`
}

// New 根据配置创建根 logger。
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}

	logger := zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	if cfg.Caller {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel 把字符串转换为 zerolog.Level，无法识别时返回 InfoLevel。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Component 派生带 component 字段的子 logger
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// Ctx 返回 ctx 上挂载的 logger；没有时返回 fallback。
func Ctx(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
