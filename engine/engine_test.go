package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/store"
	"github.com/rushteam/hybridrec/vector"
)

const engineFixture = `
categories:
  - {id: 1, name: Laptops}
  - {id: 2, name: Phones}
items:
  - {id: 1, name: ThinkPad, category_id: 1, price: 75000, rating: 4.5, availability: true}
  - {id: 2, name: MacBook, category_id: 1, price: 150000, rating: 4.8, availability: true}
  - {id: 3, name: Chromebook, category_id: 1, price: 30000, rating: 3.9, availability: true}
  - {id: 4, name: Pixel, category_id: 2, price: 60000, rating: 4.3, availability: true}
  - {id: 5, name: Galaxy, category_id: 2, price: 90000, rating: 4.1, availability: true}
users:
  - {id: 1, username: alice}
  - {id: 2, username: bob}
  - {id: 3, username: carol}
interactions:
  - {user_id: 1, item_id: 1, interaction_type: like}
  - {user_id: 1, item_id: 4, interaction_type: like}
  - {user_id: 2, item_id: 1, interaction_type: like}
  - {user_id: 2, item_id: 4, interaction_type: like}
  - {user_id: 2, item_id: 5, interaction_type: like}
  - {user_id: 3, item_id: 1, interaction_type: like}
  - {user_id: 3, item_id: 4, interaction_type: purchase}
  - {user_id: 3, item_id: 2, interaction_type: purchase}
embeddings:
  - {item_id: 1, vector: [1, 0, 0]}
  - {item_id: 2, vector: [0.9, 0.1, 0]}
  - {item_id: 3, vector: [0.8, 0.2, 0]}
  - {item_id: 4, vector: [0, 1, 0]}
  - {item_id: 5, vector: [0.1, 0.9, 0]}
`

type fakeNLP struct {
	filters map[string]any
	err     error
}

func (f *fakeNLP) Process(_ context.Context, text string, _ map[string]any) (*core.NLPResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.NLPResult{
		OriginalText:     text,
		CleanedText:      strings.ToLower(text),
		Intent:           "search",
		IntentConfidence: 0.9,
		Filters:          f.filters,
		Embedding:        []float64{1, 0, 0},
	}, nil
}

type failingVector struct{}

func (failingVector) Search(context.Context, *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	return nil, errors.New("vector index unavailable")
}

func (failingVector) Close() error { return nil }

type failingAudit struct{ core.AuditStore }

func (failingAudit) Save(context.Context, *core.AuditRecord) error { return errors.New("disk full") }

type failingBatchCatalog struct{ core.CatalogStore }

func (failingBatchCatalog) GetItems(context.Context, []int64) (map[int64]*core.Item, error) {
	return nil, errors.New("catalog batch read timeout")
}

type recordingObserver struct {
	mu           sync.Mutex
	outcomes     []string
	failedRecall []string
	auditFailed  int
}

func (o *recordingObserver) ObserveRequest(outcome string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObserveStage(string, time.Duration) {}

func (o *recordingObserver) ObserveRecall(source string, status core.RecallStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status == core.RecallFailed {
		o.failedRecall = append(o.failedRecall, source)
	}
}

func (o *recordingObserver) AuditFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.auditFailed++
}

type harness struct {
	engine   *Engine
	mem      *store.Memory
	observer *recordingObserver
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	ctx := context.Background()

	fx, err := store.ParseFixture([]byte(engineFixture))
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })
	if err := mem.Load(ctx, fx); err != nil {
		t.Fatal(err)
	}
	idx := vector.NewMemoryIndex("items", 3)
	if err := idx.Upsert(ctx, fx.IndexRequest("items")); err != nil {
		t.Fatal(err)
	}

	obs := &recordingObserver{}
	deps := Deps{
		NLP:          &fakeNLP{filters: map[string]any{"max_price": 200000.0}},
		Vector:       idx,
		Catalog:      mem.Catalog,
		Interactions: mem.Interactions,
		Users:        mem.Users,
		Audit:        mem.Audit,
		Stats:        mem.KV,
		Observer:     obs,
		Logger:       zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	e, err := New(DefaultConfig(), deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{engine: e, mem: mem, observer: obs}
}

func itemIDs(res *Result) []int64 {
	out := make([]int64, len(res.Recommendations))
	for i, r := range res.Recommendations {
		out[i] = r.ItemID
	}
	return out
}

func assertSorted(t *testing.T, res *Result) {
	t.Helper()
	for i := 1; i < len(res.Recommendations); i++ {
		prev, cur := res.Recommendations[i-1], res.Recommendations[i]
		if prev.Score < cur.Score || (prev.Score == cur.Score && prev.ItemID > cur.ItemID) {
			t.Errorf("recommendations not sorted at %d: %v", i, itemIDs(res))
		}
	}
}

func TestRecommendAnonymousWithPriceFilter(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res, err := h.engine.Recommend(ctx, Request{
		Query:   "affordable laptop for work",
		Filters: map[string]any{"max_price": 80000},
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.TotalFound != len(res.Recommendations) || res.TotalFound == 0 {
		t.Fatalf("total_found = %d, recommendations = %d", res.TotalFound, len(res.Recommendations))
	}
	for _, r := range res.Recommendations {
		if r.Item == nil || r.Item.Price == nil || *r.Item.Price > 80000 {
			t.Errorf("item %d violates max_price: %+v", r.ItemID, r.Item)
		}
		if r.Scores.Collaborative != 0 || r.Scores.Content != 0 {
			t.Errorf("anonymous request got personalized signals: %+v", r.Scores)
		}
	}
	assertSorted(t, res)

	want := []int64{1, 3, 4}
	got := itemIDs(res)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items = %v, want %v", got, want)
		}
	}
	if res.Recommendations[0].Explanation != "Recommended because matches your query, high rating (4.5)." {
		t.Errorf("explanation = %q", res.Recommendations[0].Explanation)
	}
	if res.Explanation != explanationFound || res.ProcessedQuery != "affordable laptop for work" || res.Intent != "search" {
		t.Errorf("result = %+v", res)
	}

	if !res.Persisted() {
		t.Fatalf("query id %q should be persisted", res.QueryID)
	}
	rec, err := h.mem.Audit.Get(ctx, res.QueryID)
	if err != nil {
		t.Fatalf("audit record: %v", err)
	}
	if len(rec.SelectedItemIDs) != 3 || rec.AlgorithmVersion != core.AlgorithmVersion || rec.UserID != nil {
		t.Errorf("audit record = %+v", rec)
	}
}

func TestRecommendIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	uid := int64(1)
	req := Request{UserID: &uid, Query: "laptop", Limit: 5}

	first, err := h.engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	a, b := itemIDs(first), itemIDs(second)
	if len(a) != len(b) {
		t.Fatalf("%v != %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("%v != %v", a, b)
		}
	}
	if first.QueryID == second.QueryID {
		t.Error("query ids must be unique per call")
	}
}

func TestRecommendMissingUserFallsBackToSemantic(t *testing.T) {
	h := newHarness(t, nil)
	uid := int64(999)

	res, err := h.engine.Recommend(context.Background(), Request{UserID: &uid, Query: "laptop", Limit: 10})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.TotalFound == 0 {
		t.Fatal("expected semantic results")
	}
	for _, r := range res.Recommendations {
		if r.Scores.Semantic == 0 || r.Scores.Collaborative != 0 || r.Scores.Content != 0 {
			t.Errorf("item %d scores = %+v", r.ItemID, r.Scores)
		}
	}
}

func TestRecommendSurvivesVectorFailure(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Vector = failingVector{} })
	uid := int64(1)

	res, err := h.engine.Recommend(context.Background(), Request{UserID: &uid, Query: "laptop", Limit: 10})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.TotalFound == 0 {
		t.Fatal("collaborative and content signals should still produce results")
	}
	var collaborative bool
	for _, r := range res.Recommendations {
		if r.Scores.Semantic != 0 {
			t.Errorf("item %d has a semantic score with the vector index down", r.ItemID)
		}
		if r.ItemID == 5 && r.Scores.Collaborative > 0 {
			collaborative = true
		}
	}
	if !collaborative {
		t.Errorf("item 5 should be recommended by similar users: %v", itemIDs(res))
	}
	assertSorted(t, res)
	if len(h.observer.failedRecall) != 1 || h.observer.failedRecall[0] != SourceSemantic {
		t.Errorf("failed recall = %v", h.observer.failedRecall)
	}
}

func TestRecommendSurvivesCatalogBatchFailure(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Catalog = failingBatchCatalog{CatalogStore: d.Catalog} })
	uid := int64(1)

	res, err := h.engine.Recommend(context.Background(), Request{UserID: &uid, Query: "laptop", Limit: 5})
	if err != nil {
		t.Fatalf("catalog failure must not fail the call: %v", err)
	}
	if res.TotalFound != 0 || len(res.Recommendations) != 0 || res.Explanation != explanationEmpty {
		t.Errorf("result = %+v", res)
	}
	if len(h.observer.outcomes) != 1 || h.observer.outcomes[0] != OutcomeOK {
		t.Errorf("outcomes = %v", h.observer.outcomes)
	}
}

func TestRecommendLimits(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.engine.Recommend(context.Background(), Request{Query: "laptop", Limit: 0})
	if err != nil {
		t.Fatalf("limit 0: %v", err)
	}
	if res.TotalFound != 0 || len(res.Recommendations) != 0 || res.Explanation != explanationEmpty {
		t.Errorf("limit 0 result = %+v", res)
	}

	res, err = h.engine.Recommend(context.Background(), Request{Query: "laptop", Limit: 2})
	if err != nil || res.TotalFound != 2 {
		t.Errorf("limit 2: total = %v, err = %v", res, err)
	}

	cfg := DefaultConfig()
	for in, want := range map[int]int{-1: 10, 0: 0, 7: 7, 50: 50, 51: 50} {
		if got := cfg.limit(in); got != want {
			t.Errorf("limit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRecommendErrors(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.engine.Recommend(context.Background(), Request{Query: "   "}); !core.IsInvalidInput(err) {
		t.Errorf("blank query err = %v", err)
	}
	if _, err := h.engine.Recommend(context.Background(), Request{Query: "x", Filters: map[string]any{"max_price": "cheap"}}); !core.IsInvalidInput(err) {
		t.Errorf("bad filter err = %v", err)
	}

	nlpDown := errors.New("nlp down")
	h = newHarness(t, func(d *Deps) { d.NLP = &fakeNLP{err: nlpDown} })
	_, err := h.engine.Recommend(context.Background(), Request{Query: "laptop", Limit: 5})
	if !errors.Is(err, ErrQueryProcessing) || !errors.Is(err, nlpDown) {
		t.Errorf("nlp failure err = %v", err)
	}
	if len(h.observer.outcomes) != 1 || h.observer.outcomes[0] != OutcomeNLPError {
		t.Errorf("outcomes = %v", h.observer.outcomes)
	}
}

func TestRecommendAuditFailure(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Audit = failingAudit{} })

	res, err := h.engine.Recommend(context.Background(), Request{Query: "laptop", Limit: 3})
	if err != nil {
		t.Fatalf("audit failure must not fail the call: %v", err)
	}
	if res.Persisted() || !strings.HasPrefix(res.QueryID, LocalQueryIDPrefix) {
		t.Errorf("query id = %q", res.QueryID)
	}
	if res.TotalFound == 0 {
		t.Error("results should still be returned")
	}
	if h.observer.auditFailed != 1 {
		t.Errorf("audit failures = %d", h.observer.auditFailed)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(DefaultConfig(), Deps{}); err == nil {
		t.Error("missing dependencies should fail")
	}
	cfg := DefaultConfig()
	cfg.Sources = []string{"popular"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown source should fail validation")
	}
	cfg = DefaultConfig()
	cfg.MaxLimit = 5
	if err := cfg.Validate(); err == nil {
		t.Error("max_limit < default_limit should fail validation")
	}
}
