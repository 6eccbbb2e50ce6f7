package recall

import (
	"context"
	"sort"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
)

// ModelSource 提供当前生效的 MF 模型，由 model.Holder 实现。
type ModelSource interface {
	Current() *model.MF
}

// MFRecall 是基于矩阵分解的召回源：对模型见过的每个物品预测该用户的评分，
// 取预测值最高的 TopK 个。
//
// 预测分数 = μ + b_u + b_i + x_u · y_i（截断到评分区间）。
//
// 冷启动：模型未训练或用户不在模型中时返回空，由 Popular 兜底。
type MFRecall struct {
	Model ModelSource

	// TopK 返回 TopK 个物品，<=0 时默认 100
	TopK int
}

func (r *MFRecall) Name() string {
	return "recall.mf"
}

func (r *MFRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil || rctx.UserID <= 0 {
		return nil, nil
	}
	m := r.Model.Current()
	if m == nil || !m.HasUser(rctx.UserID) {
		return nil, nil
	}

	items := m.Items()
	out := make([]*core.Item, 0, len(items))
	for k, itemID := range items {
		if k%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		est := m.Predict(rctx.UserID, itemID)
		if !est.Known {
			continue
		}
		it := core.NewItem(itemID)
		it.Score = est.Value
		out = append(out, it)
	}

	return topK(out, r.TopK), nil
}

// topK 按分数降序（id 升序）保留前 k 个。
func topK(items []*core.Item, k int) []*core.Item {
	if k <= 0 {
		k = 100
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > k {
		items = items[:k]
	}
	return items
}
