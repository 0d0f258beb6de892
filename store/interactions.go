package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryInteractions 是内存实现的行为日志，只追加。按用户、按物品各维护一份索引。
type MemoryInteractions struct {
	mu     sync.RWMutex
	log    []core.Interaction
	byUser map[int64][]int // userID -> log 下标
	byItem map[int64][]int
}

func NewMemoryInteractions() *MemoryInteractions {
	return &MemoryInteractions{
		byUser: make(map[int64][]int),
		byItem: make(map[int64][]int),
	}
}

func (s *MemoryInteractions) Append(ctx context.Context, in *core.Interaction) error {
	if in == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "interaction is nil")
	}
	if !in.Type.Valid() {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, fmt.Sprintf("unknown interaction type %q", in.Type))
	}
	rec := *in
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.log)
	s.log = append(s.log, rec)
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], idx)
	s.byItem[rec.ItemID] = append(s.byItem[rec.ItemID], idx)
	return nil
}

func (s *MemoryInteractions) ListByUser(ctx context.Context, userID int64, q core.InteractionQuery) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byUser[userID], q), nil
}

func (s *MemoryInteractions) ListByItem(ctx context.Context, itemID int64, q core.InteractionQuery) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byItem[itemID], q), nil
}

// collect 筛选行为并按时间排序，时间相同按追加顺序；调用方持有读锁。
func (s *MemoryInteractions) collect(idx []int, q core.InteractionQuery) []core.Interaction {
	positions := make([]int, 0, len(idx))
	for _, pos := range idx {
		if q.Matches(s.log[pos].Type) {
			positions = append(positions, pos)
		}
	}
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := s.log[positions[i]].CreatedAt, s.log[positions[j]].CreatedAt
		if q.NewestFirst {
			if !a.Equal(b) {
				return a.After(b)
			}
			return positions[i] > positions[j]
		}
		return a.Before(b)
	})
	if q.Limit > 0 && len(positions) > q.Limit {
		positions = positions[:q.Limit]
	}

	out := make([]core.Interaction, len(positions))
	for i, pos := range positions {
		out[i] = s.log[pos]
	}
	return out
}

var _ core.InteractionStore = (*MemoryInteractions)(nil)
