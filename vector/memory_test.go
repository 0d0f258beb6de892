package vector

import (
	"context"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/conv"
)

func newTestIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex("items", 0)
	err := idx.Upsert(context.Background(), &core.VectorUpsertRequest{
		Items: []*core.Item{
			{ID: 1, CategoryID: 1, Price: conv.Ptr(75000.0), Rating: 4.5},
			{ID: 2, CategoryID: 1, Price: conv.Ptr(120000.0), Rating: 4.8},
			{ID: 3, CategoryID: 2, Price: conv.Ptr(30000.0), Rating: 3.9},
			{ID: 4, CategoryID: 1, Rating: 4.1},
		},
		Vectors: [][]float64{
			{1, 0, 0},
			{0.9, 0.1, 0},
			{0, 1, 0},
			{1, 0, 0},
		},
		CategoryNames: map[int64]string{1: "Laptop", 2: "Phone"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return idx
}

func TestMemoryIndexSearch(t *testing.T) {
	idx := newTestIndex(t)
	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1, 0, 0}, TopK: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(res.Items))
	}
	// 1 与 4 完全相同，按 ID 升序
	if res.Items[0].ItemID != 1 || res.Items[1].ItemID != 4 || res.Items[2].ItemID != 2 {
		t.Errorf("order = %d,%d,%d", res.Items[0].ItemID, res.Items[1].ItemID, res.Items[2].ItemID)
	}
	if res.Items[0].Score != 1 {
		t.Errorf("identical vector score = %v, want 1", res.Items[0].Score)
	}
	for _, it := range res.Items {
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score %v out of range", it.Score)
		}
	}
}

func TestMemoryIndexFilters(t *testing.T) {
	idx := newTestIndex(t)
	tests := []struct {
		name    string
		filters core.Filters
		want    []int64
	}{
		{name: "max price drops pricey and unpriced", filters: core.Filters{MaxPrice: conv.Ptr(80000.0)}, want: []int64{1, 3}},
		{name: "category text", filters: core.Filters{Category: conv.Ptr("phone")}, want: []int64{3}},
		{name: "category id and rating", filters: core.Filters{CategoryID: conv.Ptr(int64(1)), MinRating: conv.Ptr(4.2)}, want: []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Search(context.Background(), &core.VectorSearchRequest{
				Vector:  []float64{1, 0, 0},
				TopK:    10,
				Filters: tt.filters,
			})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			got := make(map[int64]bool)
			for _, it := range res.Items {
				got[it.ItemID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing item %d in %v", id, got)
				}
			}
		})
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1, 0}, TopK: 3})
	if !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	if _, err := idx.Search(context.Background(), &core.VectorSearchRequest{}); !core.IsInvalidInput(err) {
		t.Errorf("empty vector err = %v, want INVALID_INPUT", err)
	}
}

func TestFilterExpr(t *testing.T) {
	expr, params := filterExpr(core.Filters{MaxPrice: conv.Ptr(80000.0), Category: conv.Ptr("Laptop")})
	want := "has_price == true && price <= {max_price} && category == {category}"
	if expr != want {
		t.Errorf("expr = %q, want %q", expr, want)
	}
	if params["max_price"] != 80000.0 || params["category"] != "laptop" {
		t.Errorf("params = %v", params)
	}
	if expr, _ := filterExpr(core.Filters{}); expr != "" {
		t.Errorf("empty filters expr = %q", expr)
	}
}
