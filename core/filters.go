package core

import (
	"fmt"

	"github.com/rushteam/hybridrec/pkg/conv"
)

// 过滤条件的 key，与 NLP 服务返回的 filters 以及 API 请求体一致。
const (
	FilterMaxPrice   = "max_price"
	FilterMinPrice   = "min_price"
	FilterMinRating  = "min_rating"
	FilterCategory   = "category"
	FilterCategoryID = "category_id"
	FilterPurpose    = "purpose"
)

// Filters 是强类型的过滤条件，所有字段可选（nil 表示未设置）。
type Filters struct {
	MaxPrice   *float64 `json:"max_price,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MinRating  *float64 `json:"min_rating,omitempty"`
	CategoryID *int64   `json:"category_id,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Purpose    *string  `json:"purpose,omitempty"`
}

// ParseFilters 从松散的 map（JSON 解码结果、NLP 返回值）构建 Filters。
// 未识别的 key 被忽略；已识别 key 的类型不匹配时返回错误。
func ParseFilters(m map[string]any) (Filters, error) {
	var f Filters
	for k, v := range m {
		if v == nil {
			continue
		}
		switch k {
		case FilterMaxPrice, FilterMinPrice, FilterMinRating:
			x, ok := conv.ToFloat64(v)
			if !ok {
				return Filters{}, fmt.Errorf("filter %s: expected number, got %T", k, v)
			}
			switch k {
			case FilterMaxPrice:
				f.MaxPrice = &x
			case FilterMinPrice:
				f.MinPrice = &x
			default:
				f.MinRating = &x
			}
		case FilterCategoryID:
			x, ok := conv.ToInt64(v)
			if !ok {
				return Filters{}, fmt.Errorf("filter %s: expected integer, got %T", k, v)
			}
			f.CategoryID = &x
		case FilterCategory, FilterPurpose:
			s, ok := conv.ToString(v)
			if !ok {
				return Filters{}, fmt.Errorf("filter %s: expected string, got %T", k, v)
			}
			if k == FilterCategory {
				f.Category = &s
			} else {
				f.Purpose = &s
			}
		}
	}
	return f, nil
}

// Override 返回合并后的过滤条件：o 中已设置的字段覆盖 f 中的同名字段。
// 编排层用 nlpFilters.Override(requestFilters)，请求显式传入的条件优先。
func (f Filters) Override(o Filters) Filters {
	out := f
	if o.MaxPrice != nil {
		out.MaxPrice = o.MaxPrice
	}
	if o.MinPrice != nil {
		out.MinPrice = o.MinPrice
	}
	if o.MinRating != nil {
		out.MinRating = o.MinRating
	}
	if o.CategoryID != nil {
		out.CategoryID = o.CategoryID
	}
	if o.Category != nil {
		out.Category = o.Category
	}
	if o.Purpose != nil {
		out.Purpose = o.Purpose
	}
	return out
}

// IsZero 是否没有任何条件
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// ToMap 转为松散 map，便于日志与审计。
func (f Filters) ToMap() map[string]any {
	m := make(map[string]any)
	if f.MaxPrice != nil {
		m[FilterMaxPrice] = *f.MaxPrice
	}
	if f.MinPrice != nil {
		m[FilterMinPrice] = *f.MinPrice
	}
	if f.MinRating != nil {
		m[FilterMinRating] = *f.MinRating
	}
	if f.CategoryID != nil {
		m[FilterCategoryID] = *f.CategoryID
	}
	if f.Category != nil {
		m[FilterCategory] = *f.Category
	}
	if f.Purpose != nil {
		m[FilterPurpose] = *f.Purpose
	}
	return m
}
