package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar 指定配置文件路径
	PathEnvVar = "HYBRIDREC_CONFIG"

	// EnvPrefix 环境变量前缀，层级用 "__" 分隔：HYBRIDREC_ENGINE__MAX_LIMIT -> engine.max_limit
	EnvPrefix = "HYBRIDREC_"
)

// DefaultPaths 未指定路径时按顺序查找的配置文件
var DefaultPaths = []string{
	"hybridrec.yaml",
	"hybridrec.yml",
	"/etc/hybridrec/config.yaml",
}

// Load 加载配置。path 为空时依次尝试 HYBRIDREC_CONFIG 与 DefaultPaths，都不存在则只用默认值和环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey HYBRIDREC_STORE__POSTGRES__DSN -> store.postgres.dsn
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	return strings.ReplaceAll(s, "__", ".")
}
