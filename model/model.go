package model

// Predictor 是评分预测的最小抽象：输入 (用户, 物品)，输出一个估计值或“未知”。
type Predictor interface {
	Name() string
	Predict(userID, itemID int64) Estimate
}

// 未知原因
const (
	ReasonUntrained   = "untrained"
	ReasonUnknownUser = "unknown_user"
	ReasonUnknownItem = "unknown_item"
)

// Estimate 是带标签的预测结果：Known 为 false 时 Value 无意义（冷启动）。
type Estimate struct {
	Value  float64
	Known  bool
	Reason string
}

// Unknown 返回一个未知估计。
func Unknown(reason string) Estimate {
	return Estimate{Reason: reason}
}
