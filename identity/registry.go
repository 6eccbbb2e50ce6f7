// Package identity 把聊天平台的外部身份映射为内部数值用户 id。
package identity

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rushteam/recbot/core"
)

// UserAppender 是用户表的持久化端口（dataset.UserTable 实现）。
type UserAppender interface {
	Append(u core.User) error
}

// Registry 维护 external_id → id 与 display_name → id 两个映射，二者都是用户表的投影。
// 绑定在进程生命周期内永久有效，不支持修改或注销。
type Registry struct {
	mu         sync.RWMutex
	table      UserAppender
	logger     *zap.Logger
	users      []core.User
	byExternal map[string]int64
	byName     map[string]int64
	maxID      int64
}

// New 基于已加载的用户构建映射。同名/同外部身份的重复行以后出现者为准。
func New(users []core.User, table UserAppender, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		table:      table,
		logger:     logger,
		users:      make([]core.User, 0, len(users)),
		byExternal: make(map[string]int64, len(users)),
		byName:     make(map[string]int64, len(users)),
	}
	for _, u := range users {
		r.bind(u)
	}
	return r
}

func (r *Registry) bind(u core.User) {
	r.users = append(r.users, u)
	if u.ExternalID != "" {
		r.byExternal[u.ExternalID] = u.ID
	}
	if u.DisplayName != "" {
		r.byName[u.DisplayName] = u.ID
	}
	if u.ID > r.maxID {
		r.maxID = u.ID
	}
}

// Register 为新的外部身份分配 id = 1 + max(已有 id)，先写用户表再建立绑定。
//
// 显示名或外部身份已有绑定时返回 core.ErrAlreadyRegistered；
// 写表失败时返回 core.ErrStorageFailure，内存状态不变。
func (r *Registry) Register(externalID, displayName string) (int64, error) {
	externalID = strings.TrimSpace(externalID)
	displayName = strings.TrimSpace(displayName)
	if externalID == "" || displayName == "" {
		return 0, core.ErrInvalidInput.With("external id and display name are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[displayName]; ok {
		return 0, core.ErrAlreadyRegistered.With("display name " + displayName)
	}
	if _, ok := r.byExternal[externalID]; ok {
		return 0, core.ErrAlreadyRegistered.With("external id " + externalID)
	}

	u := core.NewRegisteredUser(r.maxID+1, displayName, externalID)
	if r.table != nil {
		if err := r.table.Append(u); err != nil {
			r.logger.Error("persist user failed",
				zap.String("external_id", externalID),
				zap.Int64("user_id", u.ID),
				zap.Error(err))
			return 0, err
		}
	}
	r.bind(u)

	r.logger.Info("user registered",
		zap.String("external_id", externalID),
		zap.String("display_name", displayName),
		zap.Int64("user_id", u.ID))
	return u.ID, nil
}

// ResolveByExternalID 返回外部身份绑定的内部 id。
func (r *Registry) ResolveByExternalID(externalID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byExternal[strings.TrimSpace(externalID)]
	if !ok {
		return 0, core.ErrUserNotFound.With("external id " + externalID)
	}
	return id, nil
}

// ResolveByName 返回显示名绑定的内部 id。
func (r *Registry) ResolveByName(displayName string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[strings.TrimSpace(displayName)]
	if !ok {
		return 0, core.ErrUserNotFound.With("display name " + displayName)
	}
	return id, nil
}

// Users 返回用户快照（按加载/注册顺序）。
func (r *Registry) Users() []core.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.User, len(r.users))
	copy(out, r.users)
	return out
}

// Len 返回用户数量。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
