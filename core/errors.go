package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message），调用方按 Code 区分失败类别
//   - 支持 errors.Is：Module 与 Code 相同即视为同一类错误
//   - 可包装底层错误（Err），例如文件写入失败
//
// 使用场景：
//   - identity：USER_NOT_FOUND, ALREADY_REGISTERED
//   - catalog：ITEM_NOT_FOUND
//   - rating：INVALID_RATING
//   - storage：STORAGE_FAILURE
//   - store：NOT_FOUND
type DomainError struct {
	Code    string // 错误代码（如 "USER_NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "identity", "catalog"）
	Err     error  // 底层错误，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 按 Module + Code 比较，忽略 Message 与 Err。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// Wrap 基于当前错误类别创建一个携带底层错误和补充信息的新实例。
// 返回值仍满足 errors.Is(err, e)。
func (e *DomainError) Wrap(err error, message string) *DomainError {
	msg := e.Message
	if message != "" {
		msg = e.Message + " (" + message + ")"
	}
	return &DomainError{
		Module:  e.Module,
		Code:    e.Code,
		Message: msg,
		Err:     err,
	}
}

// With 返回一个仅补充信息、不包装底层错误的新实例。
func (e *DomainError) With(message string) *DomainError {
	return e.Wrap(nil, message)
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeUserNotFound      = "USER_NOT_FOUND"     // 外部身份未注册
	ErrorCodeAlreadyRegistered = "ALREADY_REGISTERED" // 显示名或外部身份已绑定
	ErrorCodeItemNotFound      = "ITEM_NOT_FOUND"     // 模糊匹配低于阈值
	ErrorCodeInvalidRating     = "INVALID_RATING"     // 评分越界或格式错误
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeStorageFailure    = "STORAGE_FAILURE"    // 持久化表不可读写
)

// 模块名称常量
const (
	ModuleIdentity = "identity" // 身份注册
	ModuleCatalog  = "catalog"  // 物品目录
	ModuleRating   = "rating"   // 评分存储
	ModuleStorage  = "storage"  // 持久化表
	ModuleStore    = "store"    // KV 存储
	ModuleEngine   = "engine"   // 门面
)

var (
	// ErrUserNotFound 表示外部身份尚未注册
	ErrUserNotFound = NewDomainError(ModuleIdentity, ErrorCodeUserNotFound, "identity: user not registered")

	// ErrAlreadyRegistered 表示显示名（或外部身份）已经有绑定
	ErrAlreadyRegistered = NewDomainError(ModuleIdentity, ErrorCodeAlreadyRegistered, "identity: already registered")

	// ErrItemNotFound 表示没有标题的匹配分数达到阈值（包括空目录）
	ErrItemNotFound = NewDomainError(ModuleCatalog, ErrorCodeItemNotFound, "catalog: no item matches query")

	// ErrInvalidRating 表示评分值越界、非有限数，或 id 非法
	ErrInvalidRating = NewDomainError(ModuleRating, ErrorCodeInvalidRating, "rating: invalid rating")

	// ErrInvalidInput 表示调用参数为空或格式错误
	ErrInvalidInput = NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "invalid input")

	// ErrStorageFailure 表示持久化表读取或追加失败
	ErrStorageFailure = NewDomainError(ModuleStorage, ErrorCodeStorageFailure, "storage: table unavailable")
)

// IsNotFound 检查错误是否为任意模块的“不存在”类错误
func IsNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return false
	}
	switch domainErr.Code {
	case ErrorCodeNotFound, ErrorCodeUserNotFound, ErrorCodeItemNotFound:
		return true
	}
	return false
}

// IsUserNotFound 检查错误是否为 USER_NOT_FOUND
func IsUserNotFound(err error) bool { return errors.Is(err, ErrUserNotFound) }

// IsAlreadyRegistered 检查错误是否为 ALREADY_REGISTERED
func IsAlreadyRegistered(err error) bool { return errors.Is(err, ErrAlreadyRegistered) }

// IsItemNotFound 检查错误是否为 ITEM_NOT_FOUND
func IsItemNotFound(err error) bool { return errors.Is(err, ErrItemNotFound) }

// IsInvalidRating 检查错误是否为 INVALID_RATING
func IsInvalidRating(err error) bool { return errors.Is(err, ErrInvalidRating) }

// IsStorageFailure 检查错误是否为 STORAGE_FAILURE
func IsStorageFailure(err error) bool { return errors.Is(err, ErrStorageFailure) }
