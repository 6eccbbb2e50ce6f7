package dataset

import (
	"fmt"
	"strconv"

	"github.com/rushteam/recbot/core"
)

// RatingTable 是评分表：user_id \t item_id \t rating \t timestamp。
// 文件不存在视为空表；timestamp 缺失按 0 处理。
type RatingTable struct {
	appender
	scale core.Scale
}

func NewRatingTable(cfg TableConfig) *RatingTable {
	if cfg.Delimiter == "" {
		cfg.Delimiter = "\t"
	}
	return &RatingTable{appender: appender{cfg: cfg}, scale: core.DefaultScale()}
}

// WithScale 设置加载时校验用的评分区间，默认 [1, 5]。
func (t *RatingTable) WithScale(s core.Scale) *RatingTable {
	t.scale = s
	return t
}

// Load 按文件顺序读取全部评分。
// 评分越界或 id 非正的行与语法错误一样使加载失败（STORAGE_FAILURE 包装 INVALID_RATING，带行号）。
func (t *RatingTable) Load() ([]core.Rating, error) {
	var out []core.Rating
	err := scan(t.cfg, true, func(_ int, fields []string) error {
		if len(fields) < 3 {
			return fmt.Errorf("rating row needs at least 3 fields, got %d", len(fields))
		}
		r, err := parseRating(fields)
		if err != nil {
			return err
		}
		if err := t.scale.Validate(r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Append 追加一条评分。
func (t *RatingTable) Append(r core.Rating) error {
	return t.appendRow([]string{
		strconv.FormatInt(r.UserID, 10),
		strconv.FormatInt(r.ItemID, 10),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		strconv.FormatInt(r.Timestamp, 10),
	})
}

func parseRating(fields []string) (core.Rating, error) {
	var (
		r   core.Rating
		err error
	)
	if r.UserID, err = strconv.ParseInt(field(fields, 0), 10, 64); err != nil {
		return r, fmt.Errorf("user id: %w", err)
	}
	if r.ItemID, err = strconv.ParseInt(field(fields, 1), 10, 64); err != nil {
		return r, fmt.Errorf("item id: %w", err)
	}
	if r.Value, err = strconv.ParseFloat(field(fields, 2), 64); err != nil {
		return r, fmt.Errorf("rating: %w", err)
	}
	if ts := field(fields, 3); ts != "" {
		if r.Timestamp, err = strconv.ParseInt(ts, 10, 64); err != nil {
			return r, fmt.Errorf("timestamp: %w", err)
		}
	}
	return r, nil
}
