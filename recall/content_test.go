package recall

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/store"
)

func newContentCatalog() *store.MemoryCatalog {
	c := store.NewMemoryCatalog()
	c.PutCategory(core.Category{ID: 1, Name: "Laptops"})
	c.PutCategory(core.Category{ID: 2, Name: "Smartphones"})
	c.PutItem(&core.Item{ID: 1, CategoryID: 1, Price: conv.Ptr(120.0), Rating: 4.5, Available: true})
	c.PutItem(&core.Item{ID: 2, CategoryID: 1, Price: conv.Ptr(300.0), Rating: 3.9, Available: true})
	c.PutItem(&core.Item{ID: 3, CategoryID: 1, Price: conv.Ptr(100.0), Rating: 5.0, Available: false})
	c.PutItem(&core.Item{ID: 4, CategoryID: 2, Price: conv.Ptr(100.0), Rating: 4.0, Available: true})
	return c
}

func TestContentRecall(t *testing.T) {
	profile := core.NewUserProfile(7)
	profile.PreferredCategories = []int64{1}
	profile.AvgPrice = conv.Ptr(100.0)
	uid := int64(7)

	type hit struct {
		id    int64
		score float64
	}
	tests := []struct {
		name    string
		filters core.Filters
		want    []hit
	}{
		{
			name: "preferred category",
			want: []hit{{1, 1.0}, {2, 0.8}},
		},
		{
			name:    "max price filter",
			filters: core.Filters{MaxPrice: conv.Ptr(200.0)},
			want:    []hit{{1, 1.0}},
		},
		{
			name:    "category text resolves by name",
			filters: core.Filters{Category: conv.Ptr("PHONE")},
			want:    []hit{{4, 0.6}},
		},
		{
			name:    "explicit category id wins",
			filters: core.Filters{CategoryID: conv.Ptr(int64(2)), Category: conv.Ptr("laptop")},
			want:    []hit{{4, 0.6}},
		},
		{
			name:    "unknown category name keeps preferred categories",
			filters: core.Filters{Category: conv.Ptr("tablet")},
			want:    []hit{{1, 1.0}, {2, 0.8}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Content{Catalog: newContentCatalog()}
			out, err := r.Recall(context.Background(), &core.RecommendContext{
				UserID: &uid, User: profile, Filters: tt.filters, Limit: 10,
			})
			if err != nil {
				t.Fatalf("Recall: %v", err)
			}
			if len(out) != len(tt.want) {
				t.Fatalf("got %v, want %v", ids(out), tt.want)
			}
			for i, w := range tt.want {
				if out[i].ItemID != w.id || math.Abs(out[i].Scores.Content-w.score) > 1e-9 {
					t.Errorf("out[%d] = %d/%.2f, want %d/%.2f", i, out[i].ItemID, out[i].Scores.Content, w.id, w.score)
				}
			}
		})
	}
}

func TestContentSkipsEmptyProfile(t *testing.T) {
	uid := int64(7)
	r := &Content{Catalog: newContentCatalog()}
	for _, rctx := range []*core.RecommendContext{
		{Limit: 10},
		{UserID: &uid, User: core.NewUserProfile(7), Limit: 10},
	} {
		out, err := r.Recall(context.Background(), rctx)
		if err != nil || len(out) != 0 {
			t.Errorf("Recall = %v, %v", ids(out), err)
		}
	}
}
