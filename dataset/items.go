package dataset

import (
	"fmt"
	"strconv"
)

// ItemRecord 是物品表的一行：只读取前两列 item_id | title。
type ItemRecord struct {
	ID    int64
	Title string
}

// ReadItems 读取物品表，按文件顺序返回。物品表是启动必需的，文件不存在即失败。
func ReadItems(cfg TableConfig) ([]ItemRecord, error) {
	var out []ItemRecord
	err := scan(cfg, false, func(_ int, fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("item row needs at least 2 fields, got %d", len(fields))
		}
		id, err := strconv.ParseInt(field(fields, 0), 10, 64)
		if err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		out = append(out, ItemRecord{ID: id, Title: field(fields, 1)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
