package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/hybridrec/core"
)

// Fixture 是目录、用户、行为与物品向量的种子数据（YAML）。
//
//	categories:
//	  - {id: 1, name: Laptops}
//	items:
//	  - {id: 10, name: ThinkPad, category_id: 1, price: 75000, rating: 4.5, availability: true}
//	interactions:
//	  - {user_id: 1, item_id: 10, interaction_type: like}
//	embeddings:
//	  - {item_id: 10, vector: [0.1, 0.2, 0.3]}
type Fixture struct {
	Categories   []core.Category    `yaml:"categories"`
	Items        []core.Item        `yaml:"items"`
	Users        []core.User        `yaml:"users"`
	Interactions []core.Interaction `yaml:"interactions"`
	Embeddings   []Embedding        `yaml:"embeddings"`
}

// Embedding 物品向量
type Embedding struct {
	ItemID int64     `yaml:"item_id"`
	Vector []float64 `yaml:"vector"`
}

// LoadFixture 从 YAML 文件加载种子数据。
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture 解析 YAML 种子数据。
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	for i := range fx.Interactions {
		if !fx.Interactions[i].Type.Valid() {
			return nil, fmt.Errorf("interaction %d: unknown type %q", i, fx.Interactions[i].Type)
		}
	}
	return &fx, nil
}

// Memory 把内存实现的各个存储组合在一起，供单机运行与测试使用。
type Memory struct {
	KV           *MemoryStore
	Catalog      *MemoryCatalog
	Interactions *MemoryInteractions
	Users        *MemoryUsers
	Audit        *MemoryAudit
}

func NewMemory() *Memory {
	return &Memory{
		KV:           NewMemoryStore(),
		Catalog:      NewMemoryCatalog(),
		Interactions: NewMemoryInteractions(),
		Users:        NewMemoryUsers(),
		Audit:        NewMemoryAudit(),
	}
}

// Load 把种子数据写入内存存储。
func (m *Memory) Load(ctx context.Context, fx *Fixture) error {
	for _, c := range fx.Categories {
		m.Catalog.PutCategory(c)
	}
	for i := range fx.Items {
		m.Catalog.PutItem(&fx.Items[i])
	}
	for i := range fx.Users {
		m.Users.PutUser(&fx.Users[i])
	}
	for i := range fx.Interactions {
		if err := m.Interactions.Append(ctx, &fx.Interactions[i]); err != nil {
			return fmt.Errorf("append interaction %d: %w", i, err)
		}
	}
	return nil
}

// Close 释放 KV 的后台清理协程
func (m *Memory) Close() error {
	return m.KV.Close()
}

// IndexRequest 把种子向量转换为写入请求；没有对应物品的向量被跳过。
func (fx *Fixture) IndexRequest(collection string) *core.VectorUpsertRequest {
	items := make(map[int64]*core.Item, len(fx.Items))
	for i := range fx.Items {
		items[fx.Items[i].ID] = &fx.Items[i]
	}
	req := &core.VectorUpsertRequest{
		Collection:    collection,
		CategoryNames: make(map[int64]string, len(fx.Categories)),
	}
	for _, c := range fx.Categories {
		req.CategoryNames[c.ID] = c.Name
	}
	for _, e := range fx.Embeddings {
		it, ok := items[e.ItemID]
		if !ok || len(e.Vector) == 0 {
			continue
		}
		req.Items = append(req.Items, it)
		req.Vectors = append(req.Vectors, e.Vector)
	}
	return req
}
