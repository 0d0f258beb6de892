package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
)

type fakeSource struct {
	name  string
	ids   []int64
	err   error
	panic bool
	delay time.Duration
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Candidate, error) {
	if s.panic {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Candidate, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, core.NewCandidate(id, core.Signal(s.name), 0.5))
	}
	return out, nil
}

func TestFanoutIsolatesFailures(t *testing.T) {
	var observed int
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "semantic", ids: []int64{1, 2}},
			&fakeSource{name: "collaborative", err: errors.New("store down")},
			&fakeSource{name: "content", panic: true},
			&fakeSource{name: "slow", delay: time.Second},
			&fakeSource{name: "empty"},
		},
		Timeout:  20 * time.Millisecond,
		Logger:   zerolog.Nop(),
		Observer: func(core.RecallResult, time.Duration) { observed++ },
	}
	rctx := &core.RecommendContext{Limit: 10}

	out, err := n.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 || out[0].ItemID != 1 || out[1].ItemID != 2 {
		t.Fatalf("candidates = %+v", out)
	}
	if lbl := out[0].Labels["recall_source"]; lbl.Value != "semantic" {
		t.Errorf("recall_source label = %+v", lbl)
	}

	want := []core.RecallStatus{core.RecallOK, core.RecallFailed, core.RecallFailed, core.RecallFailed, core.RecallEmpty}
	if len(rctx.RecallResults) != len(want) {
		t.Fatalf("got %d results", len(rctx.RecallResults))
	}
	for i, res := range rctx.RecallResults {
		if res.Status != want[i] {
			t.Errorf("result[%d] %s status = %s, want %s", i, res.Source, res.Status, want[i])
		}
		if res.Status == core.RecallFailed && res.Err == nil {
			t.Errorf("result[%d] failed without error", i)
		}
	}
	if !errors.Is(rctx.RecallResults[3].Err, context.DeadlineExceeded) {
		t.Errorf("slow source err = %v, want deadline exceeded", rctx.RecallResults[3].Err)
	}
	if observed != len(want) {
		t.Errorf("observer called %d times", observed)
	}
}

func TestFanoutKeepsSourceOrder(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "semantic", ids: []int64{3}, delay: 10 * time.Millisecond},
			&fakeSource{name: "content", ids: []int64{1, 2}},
		},
		MaxConcurrent: 2,
	}
	for i := 0; i < 3; i++ {
		out, _ := n.Process(context.Background(), &core.RecommendContext{Limit: 5}, nil)
		if len(out) != 3 || out[0].ItemID != 3 || out[1].ItemID != 1 || out[2].ItemID != 2 {
			t.Fatalf("run %d: order = %v", i, ids(out))
		}
	}
}

func TestFanoutNoSources(t *testing.T) {
	out, err := (&Fanout{}).Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Process = %v, %v", out, err)
	}
}

func ids(cs []*core.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ItemID
	}
	return out
}
