package core

// Item 是推荐链路中的统一承载结构：分数、元信息、标签。
// Labels 用于解释与观测；Score 用于排序决策（Top-N 中为预测评分）。
type Item struct {
	ID     int64
	Title  string
	Score  float64
	Meta   map[string]any
	Labels map[string]Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按 MergeLabel 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// LabelValue 返回 Label 的 Value，不存在时返回空串。
func (it *Item) LabelValue(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}
