package model

import (
	"sync"
	"time"
)

// State 是模型槽位的状态。
type State string

const (
	StateUntrained State = "untrained"
	StateTrained   State = "trained"
)

// Holder 持有当前生效的 MF 模型。
//
// 重训练在锁外完成，Swap 只做一次指针替换；
// 读方要么看到旧模型，要么看到新模型，不会看到半成品。
type Holder struct {
	mu        sync.RWMutex
	current   *MF
	version   int64
	trainedAt time.Time
}

// NewHolder 创建一个未训练的槽位。
func NewHolder() *Holder {
	return &Holder{}
}

// Current 返回当前模型，未训练时为 nil。
func (h *Holder) Current() *MF {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Snapshot 在同一把读锁下返回当前模型及其版本号，二者总是对应。
func (h *Holder) Snapshot() (*MF, int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.version
}

// Swap 原子地替换当前模型并递增版本号，返回新版本号。
func (h *Holder) Swap(m *MF) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = m
	h.version++
	h.trainedAt = time.Now()
	return h.version
}

// Version 返回模型版本号，每次 Swap 加一；未训练为 0。
func (h *Holder) Version() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// TrainedAt 返回最近一次 Swap 的时间。
func (h *Holder) TrainedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.trainedAt
}

func (h *Holder) State() State {
	if h.Current() == nil {
		return StateUntrained
	}
	return StateTrained
}

func (h *Holder) Name() string { return "mf.holder" }

// Predict 用当前模型预测；未训练时返回 ReasonUntrained。
func (h *Holder) Predict(userID, itemID int64) Estimate {
	m := h.Current()
	if m == nil {
		return Unknown(ReasonUntrained)
	}
	return m.Predict(userID, itemID)
}

var (
	_ Predictor = (*MF)(nil)
	_ Predictor = (*Holder)(nil)
)
