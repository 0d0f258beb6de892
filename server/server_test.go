package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
)

type fakeService struct {
	lastRequest  engine.Request
	lastFeedback engine.Feedback
	lastQuery    core.CatalogQuery
	recommendErr error
	feedbackErr  error
	health       engine.Health
}

func (f *fakeService) Recommend(_ context.Context, req engine.Request) (*engine.Result, error) {
	f.lastRequest = req
	if f.recommendErr != nil {
		return nil, f.recommendErr
	}
	return &engine.Result{
		QueryID:         "q-1",
		OriginalQuery:   req.Query,
		Recommendations: []engine.Recommendation{{ItemID: 1, Score: 0.9, Explanation: "Strong semantic match"}},
		TotalFound:      1,
	}, nil
}

func (f *fakeService) SubmitFeedback(_ context.Context, fb engine.Feedback) error {
	f.lastFeedback = fb
	return f.feedbackErr
}

func (f *fakeService) GetItem(_ context.Context, id int64) (*core.Item, error) {
	if id != 1 {
		return nil, fmt.Errorf("item %d: %w", id, core.ErrItemNotFound)
	}
	return &core.Item{ID: 1, Name: "Laptop"}, nil
}

func (f *fakeService) SearchItems(_ context.Context, q core.CatalogQuery) (*core.ItemPage, error) {
	f.lastQuery = q
	return &core.ItemPage{}, nil
}

func (f *fakeService) ListCategories(context.Context) ([]core.Category, error) {
	return []core.Category{{ID: 1, Name: "Laptops"}}, nil
}

func (f *fakeService) IntentStats(context.Context, int) ([]engine.IntentCount, error) {
	return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "intent stats are not enabled")
}

func (f *fakeService) Health(context.Context) engine.Health {
	return f.health
}

func newTestServer(svc Service) http.Handler {
	return New(svc, Options{CORSOrigins: []string{"*"}}, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecommend(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/recommendations",
		`{"query":"gaming laptop","user_id":7,"filters":{"max_price":2000},"limit":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var res engine.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.QueryID != "q-1" || len(res.Recommendations) != 1 {
		t.Errorf("result = %+v", res)
	}
	got := svc.lastRequest
	if got.Query != "gaming laptop" || got.UserID == nil || *got.UserID != 7 || got.Limit != 5 {
		t.Errorf("request = %+v", got)
	}
	if got.Filters["max_price"] == nil {
		t.Errorf("filters = %v", got.Filters)
	}
}

func TestRecommendDefaultLimit(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/v1/recommendations", `{"query":"phone"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastRequest.Limit != -1 || svc.lastRequest.UserID != nil {
		t.Errorf("request = %+v", svc.lastRequest)
	}
}

func TestRecommendLargeLimitPassesToEngine(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(svc), http.MethodPost, "/api/v1/recommendations", `{"query":"phone","limit":80}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	// 上限截断由 engine.max_limit 负责
	if svc.lastRequest.Limit != 80 {
		t.Errorf("limit = %d, want 80", svc.lastRequest.Limit)
	}
}

func TestRecommendErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "missing query", body: `{"limit":3}`, want: http.StatusBadRequest},
		{name: "negative limit", body: `{"query":"x","limit":-1}`, want: http.StatusBadRequest},
		{name: "bad json", body: `{"query":`, want: http.StatusBadRequest},
		{
			name: "invalid input",
			body: `{"query":"x"}`,
			err:  core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "bad filters"),
			want: http.StatusBadRequest,
		},
		{
			name: "nlp failure",
			body: `{"query":"x"}`,
			err:  fmt.Errorf("%w: %w", engine.ErrQueryProcessing, errors.New("timeout")),
			want: http.StatusBadGateway,
		},
		{name: "internal", body: `{"query":"x"}`, err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeService{recommendErr: tt.err})
			rec := do(t, h, http.MethodPost, "/api/v1/recommendations", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %s", rec.Body)
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(body.Error, "boom") {
				t.Errorf("internal error leaked: %s", body.Error)
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/recommendations/feedback",
		`{"query_id":"q-1","rating":4,"feedback_text":"nice","user_id":3,"item_ratings":{"10":5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	fb := svc.lastFeedback
	if fb.QueryID != "q-1" || fb.Rating != 4 || fb.Text != "nice" || fb.ItemRatings[10] != 5 {
		t.Errorf("feedback = %+v", fb)
	}

	for _, body := range []string{
		`{"query_id":"q-1","rating":6}`,
		`{"rating":3}`,
		`{"query_id":"q-1","rating":3,"item_ratings":{"10":0}}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/v1/recommendations/feedback", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}

	svc.feedbackErr = fmt.Errorf("query q-9: %w", core.ErrQueryNotFound)
	rec = do(t, h, http.MethodPost, "/api/v1/recommendations/feedback", `{"query_id":"q-9","rating":3}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestItemsAndCatalog(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	if rec := do(t, h, http.MethodGet, "/api/v1/items/1", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Laptop") {
		t.Errorf("get item: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/items/2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/items/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/search?category_id=1&category_id=2&max_price=500&available=true&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("search body = %s", rec.Body)
	}
	q := svc.lastQuery
	if len(q.CategoryIDs) != 2 || q.MaxPrice == nil || *q.MaxPrice != 500 || !q.AvailableOnly || q.Limit != 5 {
		t.Errorf("query = %+v", q)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/search?min_rating=high", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad min_rating status = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/categories", ""); !strings.Contains(rec.Body.String(), "Laptops") {
		t.Errorf("categories body = %s", rec.Body)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/stats/intents", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("intent stats status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	svc := &fakeService{health: engine.Health{Status: "healthy", Components: map[string]string{"catalog": "ok"}}}
	h := newTestServer(svc)
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}
	svc.health.Status = "degraded"
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hybridrec_requests_total 1"))
	})
	h := New(&fakeService{}, Options{MetricsHandler: metrics}, zerolog.Nop()).Handler()
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hybridrec_requests_total") {
		t.Errorf("metrics: %d %s", rec.Code, rec.Body)
	}
}

func TestRateLimit(t *testing.T) {
	h := New(&fakeService{}, Options{RateLimit: 1, RateLimitWindow: time.Minute}, zerolog.Nop()).Handler()
	if rec := do(t, h, http.MethodGet, "/api/v1/categories", ""); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/categories", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}
}
