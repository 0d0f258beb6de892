package dsl

import (
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/conv"
)

func TestFromFilters(t *testing.T) {
	laptop := &core.Item{ID: 1, CategoryID: 2, Price: conv.Ptr(75000.0), Rating: 4.5}
	pricey := &core.Item{ID: 2, CategoryID: 2, Price: conv.Ptr(120000.0), Rating: 4.8}
	noPrice := &core.Item{ID: 3, CategoryID: 3, Rating: 3.9}

	tests := []struct {
		name    string
		filters core.Filters
		item    *core.Item
		want    bool
	}{
		{name: "no filters", filters: core.Filters{}, item: noPrice, want: true},
		{name: "under max price", filters: core.Filters{MaxPrice: conv.Ptr(80000.0)}, item: laptop, want: true},
		{name: "over max price", filters: core.Filters{MaxPrice: conv.Ptr(80000.0)}, item: pricey, want: false},
		{name: "price filter without price", filters: core.Filters{MaxPrice: conv.Ptr(80000.0)}, item: noPrice, want: false},
		{name: "min price", filters: core.Filters{MinPrice: conv.Ptr(100000.0)}, item: pricey, want: true},
		{name: "min rating", filters: core.Filters{MinRating: conv.Ptr(4.0)}, item: noPrice, want: false},
		{name: "category id", filters: core.Filters{CategoryID: conv.Ptr(int64(2))}, item: laptop, want: true},
		{name: "category id mismatch", filters: core.Filters{CategoryID: conv.Ptr(int64(2))}, item: noPrice, want: false},
		{name: "category text ignored without attribute", filters: core.Filters{Category: conv.Ptr("laptop")}, item: laptop, want: true},
		{
			name:    "combined",
			filters: core.Filters{MaxPrice: conv.Ptr(80000.0), MinRating: conv.Ptr(4.0), CategoryID: conv.Ptr(int64(2))},
			item:    laptop,
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromFilters(tt.filters)
			if err != nil {
				t.Fatalf("FromFilters: %v", err)
			}
			got, err := p.MatchItem(tt.item)
			if err != nil {
				t.Fatalf("MatchItem(%s): %v", p.Expr, err)
			}
			if got != tt.want {
				t.Errorf("MatchItem(%s) = %v, want %v", p.Expr, got, tt.want)
			}
		})
	}
}

func TestFromFiltersCategoryText(t *testing.T) {
	p, err := FromFilters(core.Filters{Category: conv.Ptr("Laptop")})
	if err != nil {
		t.Fatal(err)
	}
	ok, err := p.Match(map[string]any{"rating": 4.0, "category": "laptop"})
	if err != nil || !ok {
		t.Errorf("Match(laptop) = %v, %v; want true", ok, err)
	}
	ok, err = p.Match(map[string]any{"rating": 4.0, "category": "phone"})
	if err != nil || ok {
		t.Errorf("Match(phone) = %v, %v; want false", ok, err)
	}
}

func TestCompile(t *testing.T) {
	p, err := Compile("item.available == true && item.rating > 4.0")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ok, err := p.MatchItem(&core.Item{Rating: 4.2, Available: true})
	if err != nil || !ok {
		t.Errorf("MatchItem = %v, %v; want true", ok, err)
	}

	if _, err := Compile("item.rating >"); err == nil {
		t.Error("Compile(invalid) should fail")
	}
}
