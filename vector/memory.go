package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// MemoryIndex 是内存实现的向量服务，用于测试/开发/单机部署。
// 平替 Milvus，暴力计算余弦相似度；过滤条件编译为 CEL 谓词在元数据上求值。
//
// 特点：
//   - 纯内存实现，进程重启后数据丢失
//   - 相似度按 (cos + 1) / 2 归一化到 [0, 1]
//   - 线程安全
type MemoryIndex struct {
	mu          sync.RWMutex
	dimension   int
	collection  string
	collections map[string]*collection
}

type collection struct {
	vectors  map[int64][]float64
	metadata map[int64]map[string]any
}

// NewMemoryIndex 创建内存向量索引。dimension <= 0 时以首个写入的向量维度为准。
func NewMemoryIndex(defaultCollection string, dimension int) *MemoryIndex {
	return &MemoryIndex{
		dimension:   dimension,
		collection:  defaultCollection,
		collections: make(map[string]*collection),
	}
}

func (m *MemoryIndex) Name() string { return "memory" }

func (m *MemoryIndex) collectionName(name string) string {
	if name == "" {
		return m.collection
	}
	return name
}

// Search 实现 core.VectorService 接口
func (m *MemoryIndex) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: query vector is required")
	}
	pred, err := dsl.FromFilters(req.Filters)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: invalid filters", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[m.collectionName(req.Collection)]
	if !ok {
		return &core.VectorSearchResult{}, nil
	}
	if m.dimension > 0 && len(req.Vector) != m.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector: dimension mismatch, want %d got %d", m.dimension, len(req.Vector)))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	items := make([]core.VectorSearchItem, 0, len(col.vectors))
	for itemID, vec := range col.vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta := col.metadata[itemID]
		matched, err := pred.Match(meta)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeInternalError, "vector: filter evaluation failed", err)
		}
		if !matched {
			continue
		}
		items = append(items, core.VectorSearchItem{
			ItemID:   itemID,
			Score:    (cosineSimilarity(req.Vector, vec) + 1) / 2,
			Metadata: meta,
		})
	}

	// 按分数降序，分数相同按 ID 升序
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemID < items[j].ItemID
	})
	if len(items) > topK {
		items = items[:topK]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// Upsert 实现 core.VectorIndexer 接口
func (m *MemoryIndex) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	if req == nil || len(req.Items) != len(req.Vectors) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: items and vectors length mismatch")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.collectionName(req.Collection)
	col, ok := m.collections[name]
	if !ok {
		col = &collection{
			vectors:  make(map[int64][]float64),
			metadata: make(map[int64]map[string]any),
		}
		m.collections[name] = col
	}

	for i, it := range req.Items {
		vec := req.Vectors[i]
		if m.dimension <= 0 {
			m.dimension = len(vec)
		}
		if len(vec) != m.dimension {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
				fmt.Sprintf("vector: item %d dimension mismatch, want %d got %d", it.ID, m.dimension, len(vec)))
		}
		meta := dsl.ItemVars(it)
		if catName, ok := req.CategoryNames[it.CategoryID]; ok {
			meta["category"] = strings.ToLower(catName)
		}
		col.vectors[it.ID] = append([]float64(nil), vec...)
		col.metadata[it.ID] = meta
	}
	return nil
}

// Close 实现 core.VectorService 接口
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

func (m *MemoryIndex) Ping(ctx context.Context) error { return nil }

// cosineSimilarity 余弦相似度；任一向量为零向量或维度不同时返回 0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var (
	_ core.VectorIndexer = (*MemoryIndex)(nil)
	_ core.Pinger        = (*MemoryIndex)(nil)
)
