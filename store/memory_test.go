package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
)

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	s.mu.Lock()
	s.data["old"] = &entry{value: []byte("x"), expire: time.Now().Add(-time.Second)}
	s.mu.Unlock()
	if _, err := s.Get(ctx, "old"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key err = %v, want not found", err)
	}
	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key err = %v, want not found", err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key err = %v, want not found", err)
	}
}

func TestMemoryStoreSortedSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	for _, intent := range []string{"search", "compare", "search", "buy", "compare", "search"} {
		if _, err := s.ZIncrBy(ctx, "intents", 1, intent); err != nil {
			t.Fatal(err)
		}
	}
	top, err := s.ZRange(ctx, "intents", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0] != "search" || top[1] != "compare" {
		t.Errorf("ZRange = %v", top)
	}
	score, err := s.ZScore(ctx, "intents", "buy")
	if err != nil || score != 1 {
		t.Errorf("ZScore(buy) = %v, %v", score, err)
	}
	if _, err := s.ZScore(ctx, "intents", "none"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(none) err = %v", err)
	}
}
