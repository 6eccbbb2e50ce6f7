package recall

import (
	"context"

	"github.com/rushteam/recbot/core"
)

// MFStore 是隐向量的存储接口，由 StoreMFAdapter 实现。
type MFStore interface {
	// GetUserVector 获取用户的隐向量，不存在时返回空切片
	GetUserVector(ctx context.Context, userID int64) ([]float64, error)

	// GetItemVector 获取物品的隐向量
	GetItemVector(ctx context.Context, itemID int64) ([]float64, error)

	// GetAllItemVectors 获取所有物品的隐向量
	GetAllItemVectors(ctx context.Context) (map[int64][]float64, error)
}

// StoreMFRecall 基于已发布隐向量的召回源：分数 = 用户隐向量 · 物品隐向量。
//
// 与 MFRecall 不同，它只依赖 KV 存储，不需要进程内模型，
// 适合多实例部署时由一个实例训练、其他实例查表。分数不含偏置，只用于相对排序。
type StoreMFRecall struct {
	Store MFStore

	// TopK 返回 TopK 个物品，<=0 时默认 100
	TopK int
}

func (r *StoreMFRecall) Name() string {
	return "recall.mf_store"
}

func (r *StoreMFRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID <= 0 {
		return nil, nil
	}

	userVector, err := r.Store.GetUserVector(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(userVector) == 0 {
		return nil, nil
	}

	allItemVectors, err := r.Store.GetAllItemVectors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(allItemVectors))
	for itemID, itemVector := range allItemVectors {
		it := core.NewItem(itemID)
		it.Score = dotProduct(userVector, itemVector)
		out = append(out, it)
	}

	return topK(out, r.TopK), nil
}

// dotProduct 计算两个向量的点积，维度不一致时返回 0
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
