package core

// Label 记录候选物品在链路中经过的来源与决策，便于 explain。
// Value 与 Source 的语义由节点自定义，例如 {Value: "mf", Source: "recall"}。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// 常用 Label key
const (
	LabelRecallSource   = "recall_source"
	LabelRecallPriority = "recall_priority"
	LabelFiltered       = "filtered"
)

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，空值不参与。
func MergeLabel(existing, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := Label{Value: existing.Value + "|" + incoming.Value}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
