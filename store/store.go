// Package store 提供 core.Store 的实现：MemoryStore（测试/单机）与 RedisStore（生产）。
//
// 用途是发布训练后的隐向量（见 recall.StoreMFAdapter），不是评分数据的真相来源。
//
//	var s core.Store = store.NewMemoryStore()
package store

import "github.com/rushteam/recbot/core"

// ErrNotFound 与 core.ErrStoreNotFound 相同，方便在本包内引用。
var ErrNotFound = core.ErrStoreNotFound
