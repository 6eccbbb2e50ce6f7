package core

// User 是一行用户表记录。
//
// 人口统计字段（Age/Gender/Occupation）原样透传，不做校验；
// 新注册用户使用占位值。DisplayName 与 ExternalID 为空表示该行没有聊天平台绑定。
type User struct {
	ID          int64
	Age         string
	Gender      string
	Occupation  string
	DisplayName string
	ExternalID  string
}

// 新注册用户的占位人口统计字段
const (
	PlaceholderAge        = "0"
	PlaceholderGender     = "U"
	PlaceholderOccupation = "other"
)

// NewRegisteredUser 创建一个带占位人口统计字段的新用户。
func NewRegisteredUser(id int64, displayName, externalID string) User {
	return User{
		ID:          id,
		Age:         PlaceholderAge,
		Gender:      PlaceholderGender,
		Occupation:  PlaceholderOccupation,
		DisplayName: displayName,
		ExternalID:  externalID,
	}
}
