package rank

import (
	"context"
	"sort"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
	"github.com/rushteam/recbot/pipeline"
)

// LabelRankModel 记录给候选打分的模型。
const LabelRankModel = "rank_model"

// MFNode 用模型预测评分覆盖候选的召回分数。
// - 预测未知（冷启动）的候选保留原分数，不写 label
// - 写入 labels：rank_model
// - 按分数降序排序，同分按 id 升序
type MFNode struct {
	Model model.Predictor
}

func (n *MFNode) Name() string        { return "rank.mf" }
func (n *MFNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *MFNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || rctx == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		est := n.Model.Predict(rctx.UserID, it.ID)
		if !est.Known {
			continue
		}
		it.Score = est.Value
		it.PutLabel(LabelRankModel, core.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
