package core

// UserProfile 是用户画像：每次推荐请求开始时从行为日志重新推导，响应构建完成后丢弃，不单独持久化。
//
// 驱动两路个性化召回：
//   - 协同过滤：依赖 Liked / Purchased
//   - 内容召回：依赖 PreferredCategories 与价格统计
//
// 用户不存在或没有行为时返回空画像（所有字段为空/零值），这不是错误。
type UserProfile struct {
	UserID int64

	// Liked / Purchased 物品 ID 集合
	Liked     map[int64]struct{}
	Purchased map[int64]struct{}

	// PreferredCategories 偏好分类，按行为次数降序，次数相同按分类 ID 升序
	PreferredCategories []int64

	// 价格统计，仅统计 like/purchase 且物品价格非空的行为；无数据时为 nil
	AvgPrice *float64
	MinPrice *float64
	MaxPrice *float64

	// Preferences 用户自填的原始偏好
	Preferences map[string]any
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		Liked:     make(map[int64]struct{}),
		Purchased: make(map[int64]struct{}),
	}
}

// IsEmpty 画像是否没有任何行为推导出的信号。
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.Liked) == 0 &&
		len(p.Purchased) == 0 &&
		len(p.PreferredCategories) == 0 &&
		p.AvgPrice == nil
}

// HasLiked 是否喜欢过该物品
func (p *UserProfile) HasLiked(itemID int64) bool {
	if p == nil {
		return false
	}
	_, ok := p.Liked[itemID]
	return ok
}

// PrefersCategory 分类是否在偏好列表中
func (p *UserProfile) PrefersCategory(categoryID int64) bool {
	if p == nil {
		return false
	}
	for _, c := range p.PreferredCategories {
		if c == categoryID {
			return true
		}
	}
	return false
}

// Engaged 返回 Liked ∪ Purchased。
func (p *UserProfile) Engaged() map[int64]struct{} {
	out := make(map[int64]struct{})
	if p == nil {
		return out
	}
	for id := range p.Liked {
		out[id] = struct{}{}
	}
	for id := range p.Purchased {
		out[id] = struct{}{}
	}
	return out
}
