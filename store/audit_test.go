package store

import (
	"context"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

func TestMemoryAudit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAudit()

	rec := &core.AuditRecord{QueryID: "q1", QueryText: "laptop", SelectedItemIDs: []int64{1, 2}, AlgorithmVersion: core.AlgorithmVersion}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.SelectedItemIDs[0] = 99

	if err := s.AttachFeedback(ctx, "q1", 5, "great"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Rating == nil || *got.Rating != 5 || got.FeedbackText != "great" {
		t.Errorf("feedback not attached: %+v", got)
	}
	if got.SelectedItemIDs[0] != 1 {
		t.Error("saved record should not alias caller slice")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}

	if err := s.AttachFeedback(ctx, "missing", 3, ""); !core.IsNotFound(err) {
		t.Errorf("AttachFeedback(missing) err = %v", err)
	}
	if err := s.Save(ctx, &core.AuditRecord{}); !core.IsInvalidInput(err) {
		t.Errorf("Save without id err = %v", err)
	}
}
