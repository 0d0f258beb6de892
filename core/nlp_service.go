package core

import "context"

// NLPService 是文本理解服务的领域接口：清洗、意图识别、情感、实体/过滤条件抽取、向量化。
//
// 实现：
//   - nlp.Client 通过 HTTP 调用外部 NLP 服务
//   - nlp.Cached 为任意 NLPService 增加 KV 缓存
//
// 文本理解是推荐的必需步骤，没有降级方案：Process 返回错误时整个推荐请求失败。
type NLPService interface {
	Process(ctx context.Context, text string, userContext map[string]any) (*NLPResult, error)
}

// Entity 是抽取出的命名实体
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// NLPResult 文本理解结果
type NLPResult struct {
	OriginalText     string         `json:"original_text"`
	CleanedText      string         `json:"cleaned_text"`
	Tokens           []string       `json:"tokens"`
	Entities         []Entity       `json:"entities"`
	Intent           string         `json:"intent"`
	IntentConfidence float64        `json:"intent_confidence"`
	Sentiment        string         `json:"sentiment"`
	SentimentScore   float64        `json:"sentiment_score"`
	Filters          map[string]any `json:"filters"`
	Embedding        []float64      `json:"embedding"`
}
