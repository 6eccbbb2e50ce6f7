package core

// RecommendContext 承载一次请求的用户与参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserID 是内部数值 id（已由 identity 解析）
	UserID int64

	// ExternalID 是聊天平台侧的身份字符串，仅用于日志与表达式
	ExternalID string

	// Params 请求级参数，例如 {"n": 10}，可在 CEL 表达式中通过 rctx.params 访问
	Params map[string]any

	// Labels 是用户级标签，例如 cold_start
	Labels map[string]Label
}

// NewRecommendContext 创建请求上下文。
func NewRecommendContext(userID int64, externalID string) *RecommendContext {
	return &RecommendContext{
		UserID:     userID,
		ExternalID: externalID,
		Params:     make(map[string]any),
		Labels:     make(map[string]Label),
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
