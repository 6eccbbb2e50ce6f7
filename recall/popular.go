package recall

import (
	"context"
	"sort"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/rating"
)

// PopularitySource 提供物品评分统计，由 rating.Store 实现。
type PopularitySource interface {
	Popularity() []rating.ItemStat
}

// Popular 是热门召回源：按评分次数降序、均分降序取 TopK。
// 候选分数为均分，评分次数写入 Meta["count"]。
//
// 新用户（模型中没有隐向量）依赖它得到非空结果。
type Popular struct {
	Stats PopularitySource

	// TopK 返回 TopK 个物品，<=0 时默认 100
	TopK int

	// MinCount 评分次数低于该值的物品不参与
	MinCount int
}

func (r *Popular) Name() string {
	return "recall.popular"
}

func (r *Popular) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Stats == nil {
		return nil, nil
	}

	stats := r.Stats.Popularity()
	kept := stats[:0:0]
	for _, s := range stats {
		if s.Count >= r.MinCount {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Count != kept[j].Count {
			return kept[i].Count > kept[j].Count
		}
		if kept[i].Mean != kept[j].Mean {
			return kept[i].Mean > kept[j].Mean
		}
		return kept[i].ItemID < kept[j].ItemID
	})

	k := r.TopK
	if k <= 0 {
		k = 100
	}
	if len(kept) > k {
		kept = kept[:k]
	}

	out := make([]*core.Item, 0, len(kept))
	for _, s := range kept {
		it := core.NewItem(s.ItemID)
		it.Score = s.Mean
		it.Meta["count"] = int64(s.Count)
		out = append(out, it)
	}
	return out, nil
}
