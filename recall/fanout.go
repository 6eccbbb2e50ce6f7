package recall

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/pipeline"
)

// 合并策略
const (
	MergeFirst    = "first"    // 按 ID 去重，保留第一个出现的（按 Sources 顺序）
	MergeUnion    = "union"    // 全部保留，不去重
	MergePriority = "priority" // 按 ID 去重，保留优先级更高（索引更小）的来源
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。
//
// 各召回源的结果按 Sources 顺序拼接后再合并，输出与 goroutine 调度无关。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // first / union / priority
	Logger        *zap.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			// 超时控制
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				logger.Warn("recall source failed",
					zap.String("source", src.Name()),
					zap.Error(err))
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				if it == nil {
					continue
				}
				it.PutLabel(core.LabelRecallSource, core.Label{Value: src.Name(), Source: "recall"})
				it.Labels[core.LabelRecallPriority] = core.Label{Value: strconv.Itoa(i), Source: "recall"}
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		for _, it := range items {
			if it != nil {
				all = append(all, it)
			}
		}
	}

	switch n.MergeStrategy {
	case MergePriority:
		return n.mergeByPriority(all), nil
	case MergeUnion:
		return n.mergeUnion(all), nil
	default:
		return n.mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的（默认策略），后出现的只合并 label。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[int64]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if old, ok := seen[it.ID]; ok {
			mergeLabels(old, it)
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// mergeUnion 合并所有结果，不去重（用于需要保留所有来源的场景）。
func (n *Fanout) mergeUnion(all []*core.Item) []*core.Item {
	return all
}

// mergeByPriority 按优先级合并：相同 ID 时保留优先级更高的（索引更小），位置取首次出现处。
func (n *Fanout) mergeByPriority(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	pos := make(map[int64]int, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		i, exists := pos[it.ID]
		if !exists {
			pos[it.ID] = len(out)
			out = append(out, it)
			continue
		}
		old := out[i]
		if priority(it) < priority(old) {
			mergeLabels(it, old)
			out[i] = it
		} else {
			mergeLabels(old, it)
		}
	}
	return out
}

func priority(it *core.Item) int {
	if lbl, ok := it.Labels[core.LabelRecallPriority]; ok {
		if p, err := strconv.Atoi(lbl.Value); err == nil {
			return p
		}
	}
	return 999
}

// mergeLabels 把 src 的 label 累积到 dst，优先级 label 保持 dst 的值。
func mergeLabels(dst, src *core.Item) {
	for k, v := range src.Labels {
		if k == core.LabelRecallPriority {
			continue
		}
		dst.PutLabel(k, v)
	}
}
