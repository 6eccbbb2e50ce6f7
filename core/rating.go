package core

import (
	"fmt"
	"math"
)

// 默认评分区间（闭区间）
const (
	DefaultMinRating = 1.0
	DefaultMaxRating = 5.0
)

// Rating 是一条不可变的评分记录。
// Timestamp 为 Unix 秒，0 表示未记录提交时间。
type Rating struct {
	UserID    int64
	ItemID    int64
	Value     float64
	Timestamp int64
}

// Scale 是评分区间 [Min, Max]。
type Scale struct {
	Min float64
	Max float64
}

// DefaultScale 返回 [1, 5]。
func DefaultScale() Scale {
	return Scale{Min: DefaultMinRating, Max: DefaultMaxRating}
}

// Contains 判断 v 是否为区间内的有限数。
func (s Scale) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= s.Min && v <= s.Max
}

// Clip 把 v 截断到区间内。
func (s Scale) Clip(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Validate 校验评分值与 id 格式，失败时返回 ErrInvalidRating。
func (s Scale) Validate(r Rating) error {
	if r.UserID <= 0 || r.ItemID <= 0 {
		return ErrInvalidRating.With(fmt.Sprintf("user=%d item=%d: ids must be positive", r.UserID, r.ItemID))
	}
	if !s.Contains(r.Value) {
		return ErrInvalidRating.With(fmt.Sprintf("value %v outside [%v, %v]", r.Value, s.Min, s.Max))
	}
	return nil
}
