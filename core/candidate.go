package core

import "github.com/rushteam/hybridrec/pkg/utils"

// Signal 召回信号名称。
type Signal string

const (
	SignalSemantic      Signal = "semantic"
	SignalCollaborative Signal = "collaborative"
	SignalContent       Signal = "content"
)

// Signals 全部信号，顺序即解释文本的子句顺序。
var Signals = []Signal{SignalSemantic, SignalCollaborative, SignalContent}

// ScoreBreakdown 是各路信号的得分，未命中的信号为 0。
type ScoreBreakdown struct {
	Semantic      float64 `json:"semantic"`
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
}

// Get 读取某一路信号的得分
func (s ScoreBreakdown) Get(sig Signal) float64 {
	switch sig {
	case SignalSemantic:
		return s.Semantic
	case SignalCollaborative:
		return s.Collaborative
	case SignalContent:
		return s.Content
	default:
		return 0
	}
}

// Set 写入某一路信号的得分（同一信号重复写入时后者覆盖前者）
func (s *ScoreBreakdown) Set(sig Signal, v float64) {
	switch sig {
	case SignalSemantic:
		s.Semantic = v
	case SignalCollaborative:
		s.Collaborative = v
	case SignalContent:
		s.Content = v
	}
}

// Merge 把 o 中非零的信号写入 s。
func (s *ScoreBreakdown) Merge(o ScoreBreakdown) {
	for _, sig := range Signals {
		if v := o.Get(sig); v != 0 {
			s.Set(sig, v)
		}
	}
}

// NonZero 非零信号个数
func (s ScoreBreakdown) NonZero() int {
	n := 0
	for _, sig := range Signals {
		if s.Get(sig) != 0 {
			n++
		}
	}
	return n
}

// Candidate 是推荐链路中的统一承载结构：信号得分、融合分、置信度、物品详情与解释。
// Labels 记录召回来源等可追踪信息。
type Candidate struct {
	ItemID      int64
	Source      Signal // 召回信号；合并后的候选为空
	Scores      ScoreBreakdown
	Score       float64 // 融合分，取值 [0, 1.1]
	Confidence  float64 // 命中信号数 / 3
	Item        *Item   // 排序阶段补全
	Explanation string
	Labels      map[string]utils.Label
}

// NewCandidate 创建只带一路信号的候选，得分裁剪到 [0, 1]。
func NewCandidate(itemID int64, sig Signal, score float64) *Candidate {
	c := &Candidate{
		ItemID: itemID,
		Source: sig,
		Labels: make(map[string]utils.Label),
	}
	c.Scores.Set(sig, Clip01(score))
	return c
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Clip01 把分数限制在 [0, 1]
func Clip01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
