package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/hybridrec/recall"
)

// 内置召回源
const (
	SourceSemantic      = "semantic"
	SourceCollaborative = "collaborative"
	SourceContent       = "content"
)

// SourceBuilder 根据依赖与配置构建一路召回源。
// 自定义召回源在 init 中调用 RegisterSource 即可通过 Config.Sources 启用。
type SourceBuilder func(deps Deps, cfg Config) (recall.Source, error)

var (
	sourceBuilders   = make(map[string]SourceBuilder)
	sourceBuildersMu sync.RWMutex
)

func init() {
	RegisterSource(SourceSemantic, func(deps Deps, cfg Config) (recall.Source, error) {
		if deps.Vector == nil {
			return nil, fmt.Errorf("semantic recall requires a vector service")
		}
		return &recall.Semantic{Vector: deps.Vector, Collection: cfg.Collection, Multiplier: cfg.SemanticMultiplier}, nil
	})
	RegisterSource(SourceCollaborative, func(deps Deps, cfg Config) (recall.Source, error) {
		return &recall.Collaborative{Interactions: deps.Interactions, Policy: deps.Policy, Multiplier: cfg.CollaborativeMultiplier}, nil
	})
	RegisterSource(SourceContent, func(deps Deps, cfg Config) (recall.Source, error) {
		return &recall.Content{Catalog: deps.Catalog, Policy: deps.Policy, Multiplier: cfg.ContentMultiplier}, nil
	})
}

// RegisterSource 注册一种召回源的构建逻辑。
func RegisterSource(name string, builder SourceBuilder) {
	if name == "" || builder == nil {
		return
	}
	sourceBuildersMu.Lock()
	defer sourceBuildersMu.Unlock()
	sourceBuilders[name] = builder
}

// SupportedSources 返回已注册的召回源名称（排序），用于错误提示与校验。
func SupportedSources() []string {
	sourceBuildersMu.RLock()
	defer sourceBuildersMu.RUnlock()
	names := make([]string, 0, len(sourceBuilders))
	for name := range sourceBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sourceRegistered(name string) bool {
	sourceBuildersMu.RLock()
	defer sourceBuildersMu.RUnlock()
	_, ok := sourceBuilders[name]
	return ok
}

func buildSources(deps Deps, cfg Config) ([]recall.Source, error) {
	sources := make([]recall.Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		sourceBuildersMu.RLock()
		builder, ok := sourceBuilders[name]
		sourceBuildersMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unsupported recall source %q (supported: %v)", name, SupportedSources())
		}
		src, err := builder(deps, cfg)
		if err != nil {
			return nil, fmt.Errorf("build recall source %s: %w", name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
