package core

import "fmt"

// Policy 是混合推荐的策略常量，默认值即线上策略；可通过配置覆盖。
type Policy struct {
	// 融合权重
	WeightSemantic      float64 `koanf:"weight_semantic"`
	WeightCollaborative float64 `koanf:"weight_collaborative"`
	WeightContent       float64 `koanf:"weight_content"`

	// 热度加权：物品评分 > PopularityThreshold 时融合分乘以 PopularityBoost
	PopularityThreshold float64 `koanf:"popularity_threshold"`
	PopularityBoost     float64 `koanf:"popularity_boost"`

	// 协同过滤
	MinSharedItems         int     `koanf:"min_shared_items"`
	MaxSimilarUsers        int     `koanf:"max_similar_users"`
	CollaborativeDivisor   float64 `koanf:"collaborative_divisor"`
	MinCorroboratingRating int     `koanf:"min_corroborating_rating"`

	// 内容召回
	ContentBase          float64 `koanf:"content_base"`
	ContentCategoryBonus float64 `koanf:"content_category_bonus"`
	ContentRatingBonus   float64 `koanf:"content_rating_bonus"`
	ContentPriceBonus    float64 `koanf:"content_price_bonus"`
	HighRating           float64 `koanf:"high_rating"`
	PriceRangeMultiplier float64 `koanf:"price_range_multiplier"`

	// 用户画像
	ProfileHistory int `koanf:"profile_history"`
	TopCategories  int `koanf:"top_categories"`

	// 解释文本阈值
	ExplainSemantic      float64 `koanf:"explain_semantic"`
	ExplainCollaborative float64 `koanf:"explain_collaborative"`
	ExplainContent       float64 `koanf:"explain_content"`
	BudgetMultiplier     float64 `koanf:"budget_multiplier"`
}

// DefaultPolicy 返回默认策略
func DefaultPolicy() Policy {
	return Policy{
		WeightSemantic:      0.40,
		WeightCollaborative: 0.35,
		WeightContent:       0.25,

		PopularityThreshold: 4.0,
		PopularityBoost:     1.1,

		MinSharedItems:         2,
		MaxSimilarUsers:        20,
		CollaborativeDivisor:   5.0,
		MinCorroboratingRating: 4,

		ContentBase:          0.5,
		ContentCategoryBonus: 0.3,
		ContentRatingBonus:   0.2,
		ContentPriceBonus:    0.1,
		HighRating:           4.0,
		PriceRangeMultiplier: 0.5,

		ProfileHistory: 100,
		TopCategories:  5,

		ExplainSemantic:      0.5,
		ExplainCollaborative: 0.3,
		ExplainContent:       0.3,
		BudgetMultiplier:     1.2,
	}
}

// Weight 返回某一路信号的融合权重
func (p Policy) Weight(sig Signal) float64 {
	switch sig {
	case SignalSemantic:
		return p.WeightSemantic
	case SignalCollaborative:
		return p.WeightCollaborative
	case SignalContent:
		return p.WeightContent
	default:
		return 0
	}
}

// Validate 检查策略取值
func (p Policy) Validate() error {
	for _, sig := range Signals {
		if p.Weight(sig) < 0 {
			return fmt.Errorf("policy: weight for %s must not be negative", sig)
		}
	}
	if p.PopularityBoost < 1 {
		return fmt.Errorf("policy: popularity_boost must be >= 1")
	}
	if p.CollaborativeDivisor <= 0 {
		return fmt.Errorf("policy: collaborative_divisor must be positive")
	}
	if p.MinSharedItems < 1 || p.MaxSimilarUsers < 1 {
		return fmt.Errorf("policy: min_shared_items and max_similar_users must be positive")
	}
	if p.ProfileHistory < 1 || p.TopCategories < 1 {
		return fmt.Errorf("policy: profile_history and top_categories must be positive")
	}
	if p.PriceRangeMultiplier < 0 || p.PriceRangeMultiplier > 1 {
		return fmt.Errorf("policy: price_range_multiplier must be within [0, 1]")
	}
	return nil
}

// OrDefault 零值策略返回 DefaultPolicy，便于直接使用字面量构造的组件。
func (p Policy) OrDefault() Policy {
	if p == (Policy{}) {
		return DefaultPolicy()
	}
	return p
}
