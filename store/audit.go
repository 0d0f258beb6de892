package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryAudit 是内存实现的审计记录表
type MemoryAudit struct {
	mu      sync.RWMutex
	records map[string]*core.AuditRecord
}

func NewMemoryAudit() *MemoryAudit {
	return &MemoryAudit{records: make(map[string]*core.AuditRecord)}
}

func (s *MemoryAudit) Save(ctx context.Context, rec *core.AuditRecord) error {
	if rec == nil || rec.QueryID == "" {
		return core.NewDomainError(core.ModuleAudit, core.ErrorCodeInvalidInput, "audit: query id is required")
	}
	cp := *rec
	cp.SelectedItemIDs = append([]int64(nil), rec.SelectedItemIDs...)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.QueryID] = &cp
	return nil
}

func (s *MemoryAudit) AttachFeedback(ctx context.Context, queryID string, rating int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[queryID]
	if !ok {
		return fmt.Errorf("query %s: %w", queryID, core.ErrQueryNotFound)
	}
	rec.Rating = &rating
	rec.FeedbackText = text
	return nil
}

func (s *MemoryAudit) Get(ctx context.Context, queryID string) (*core.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[queryID]
	if !ok {
		return nil, fmt.Errorf("query %s: %w", queryID, core.ErrQueryNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryAudit) Ping(ctx context.Context) error { return nil }

var _ core.AuditStore = (*MemoryAudit)(nil)
