package pipeline

import (
	"context"

	"github.com/rushteam/recbot/core"
)

// Kind 用于标记 Node 类型，方便按阶段打点和排查。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：生成候选集
	KindFilter Kind = "filter" // 过滤阶段：剔除已评分或不满足表达式的候选
	KindRank   Kind = "rank"   // 排序阶段：用模型预测评分重新打分
	KindReRank Kind = "rerank" // 重排阶段：排序并截断为 Top-N
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态：Recall 生成、Filter 剔除、Rank 打分、ReRank 截断。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
