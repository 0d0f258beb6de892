package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushteam/hybridrec/core"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound, "store: user not found")

// MemoryUsers 是内存实现的用户表
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[int64]*core.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[int64]*core.User)}
}

// PutUser 写入或覆盖用户
func (s *MemoryUsers) PutUser(u *core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *MemoryUsers) GetUser(ctx context.Context, id int64) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

var _ core.UserStore = (*MemoryUsers)(nil)
