package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/pipeline"
)

// TopNNode 按分数降序排序后截取前 N 个物品，分数相同按 id 升序。
// 同一 id 只保留分数最高的一条，union 合并的召回结果也不会重复出现。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Fanout{...},
//	        &filter.FilterNode{...},
//	        &rerank.TopNNode{N: 10},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量；N <= 0 时只排序不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	seen := make(map[int64]struct{}, len(out))
	uniq := out[:0]
	for _, it := range out {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		uniq = append(uniq, it)
	}
	out = uniq

	limit := n.N
	if rctx != nil {
		if v, ok := rctx.Params["n"]; ok {
			if pn, ok := v.(int); ok && pn > 0 {
				limit = pn
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
