package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryStore 是内存实现的 KV Store，用于测试/开发/单机部署。
// 支持 TTL（秒），进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	zsets map[string]map[string]float64 // zset key -> member -> score
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
}

type entry struct {
	value  []byte
	expire time.Time // 零值表示不过期
}

func (e *entry) expired(now time.Time) bool {
	return !e.expire.IsZero() && now.After(e.expire)
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:  make(map[string]*entry),
		zsets: make(map[string]map[string]float64),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = &entry{value: value, expire: expireAt(ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.zsets, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func expireAt(ttl []int) time.Time {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	return time.Time{}
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case now := <-m.clean.C:
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// KeyValueStore 扩展方法（MemoryStore 也实现 KeyValueStore 接口）

var _ core.KeyValueStore = (*MemoryStore)(nil)

func (m *MemoryStore) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] += delta
	return m.zsets[key][member], nil
}

// ZRange 按分数降序返回 [start, stop] 名次的成员，分数相同按成员字典序（与 Redis ZREVRANGE 一致）。
func (m *MemoryStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok || len(zset) == 0 {
		return nil, nil
	}

	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(zset))
	for member, s := range zset {
		pairs = append(pairs, pair{member: member, score: s})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].member > pairs[j].member
	})

	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(pairs)) {
		stop = int64(len(pairs)) - 1
	}
	if start > stop {
		return nil, nil
	}

	result := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		result = append(result, pairs[i].member)
	}
	return result, nil
}

func (m *MemoryStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, ok := m.zsets[key][member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}
