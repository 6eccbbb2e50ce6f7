package dataset

import (
	"fmt"
	"strconv"

	"github.com/rushteam/recbot/core"
)

// UserTable 是用户表：user_id | age | gender | occupation | display_name | external_id。
// 缺失的尾部字段视为空；文件不存在视为空表。
type UserTable struct {
	appender
}

func NewUserTable(cfg TableConfig) *UserTable {
	return &UserTable{appender: appender{cfg: cfg}}
}

// Load 读取全部用户。
func (t *UserTable) Load() ([]core.User, error) {
	var out []core.User
	err := scan(t.cfg, true, func(_ int, fields []string) error {
		id, err := strconv.ParseInt(field(fields, 0), 10, 64)
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		out = append(out, core.User{
			ID:          id,
			Age:         field(fields, 1),
			Gender:      field(fields, 2),
			Occupation:  field(fields, 3),
			DisplayName: field(fields, 4),
			ExternalID:  field(fields, 5),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Append 追加一个用户。
func (t *UserTable) Append(u core.User) error {
	return t.appendRow([]string{
		strconv.FormatInt(u.ID, 10),
		u.Age,
		u.Gender,
		u.Occupation,
		u.DisplayName,
		u.ExternalID,
	})
}
