package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
)

// StoreMFAdapter 是基于 core.Store 的隐向量存储适配器。
// 训练完成后把用户/物品隐向量发布到 Redis 等 KV 存储，外部服务可以直接查表；
// 同时实现 MFStore，供 StoreMFRecall 从存储侧召回。
type StoreMFAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	// 用户隐向量：{KeyPrefix}:user:{userID}
	// 物品隐向量：{KeyPrefix}:item:{itemID}
	// 所有物品列表：{KeyPrefix}:items
	KeyPrefix string

	// TTL 单位为秒，<=0 表示不过期
	TTL int
}

// NewStoreMFAdapter 创建一个基于 core.Store 的矩阵分解适配器。
func NewStoreMFAdapter(s core.Store, keyPrefix string) *StoreMFAdapter {
	if keyPrefix == "" {
		keyPrefix = "mf"
	}
	return &StoreMFAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreMFAdapter) Name() string {
	return "store_mf_adapter"
}

func (a *StoreMFAdapter) userKey(id int64) string {
	return a.KeyPrefix + ":user:" + strconv.FormatInt(id, 10)
}

func (a *StoreMFAdapter) itemKey(id int64) string {
	return a.KeyPrefix + ":item:" + strconv.FormatInt(id, 10)
}

func (a *StoreMFAdapter) itemsKey() string {
	return a.KeyPrefix + ":items"
}

// Publish 把模型的全部隐向量写入存储，返回写入的 key 数。
func (a *StoreMFAdapter) Publish(ctx context.Context, m *model.MF) (int, error) {
	if m == nil {
		return 0, nil
	}

	users := m.Users()
	items := m.Items()
	kvs := make(map[string][]byte, len(users)+len(items)+1)

	for _, id := range users {
		vec, _ := m.UserVector(id)
		data, err := json.Marshal(vec)
		if err != nil {
			return 0, err
		}
		kvs[a.userKey(id)] = data
	}
	for _, id := range items {
		vec, _ := m.ItemVector(id)
		data, err := json.Marshal(vec)
		if err != nil {
			return 0, err
		}
		kvs[a.itemKey(id)] = data
	}
	data, err := json.Marshal(items)
	if err != nil {
		return 0, err
	}
	kvs[a.itemsKey()] = data

	if err := a.store.BatchSet(ctx, kvs, a.TTL); err != nil {
		return 0, fmt.Errorf("publish factors to %s: %w", a.store.Name(), err)
	}
	return len(kvs), nil
}

func (a *StoreMFAdapter) GetUserVector(ctx context.Context, userID int64) ([]float64, error) {
	return a.getVector(ctx, a.userKey(userID))
}

func (a *StoreMFAdapter) GetItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	return a.getVector(ctx, a.itemKey(itemID))
}

func (a *StoreMFAdapter) getVector(ctx context.Context, key string) ([]float64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []float64{}, nil
		}
		return nil, err
	}

	var result []float64
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAllItems 返回已发布的物品 id 列表。
func (a *StoreMFAdapter) GetAllItems(ctx context.Context) ([]int64, error) {
	data, err := a.store.Get(ctx, a.itemsKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []int64{}, nil
		}
		return nil, err
	}

	var result []int64
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *StoreMFAdapter) GetAllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	itemIDs, err := a.GetAllItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return make(map[int64][]float64), nil
	}

	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, a.itemKey(id))
	}
	raw, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[int64][]float64, len(raw))
	for i, id := range itemIDs {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var vec []float64
		if err := json.Unmarshal(data, &vec); err != nil {
			continue
		}
		if len(vec) > 0 {
			result[id] = vec
		}
	}
	return result, nil
}

var _ MFStore = (*StoreMFAdapter)(nil)
