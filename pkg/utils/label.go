package utils

// Label 记录候选在链路中的来历：由哪一路召回产生、在哪个阶段被修饰。
// Value 与 Source 的语义由各节点自定义，这里只提供合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / postprocess
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积

func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
