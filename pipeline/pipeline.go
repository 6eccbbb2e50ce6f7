package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/recbot/core"
)

// Pipeline 把 Top-N 推荐拆成可组合的 Node 链，按顺序执行。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行每个 Node，前一个的输出是后一个的输入。
// 任一 Node 出错即中止，错误带上 Node 名称。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Describe 返回节点链的可读描述，例如 "recall.fanout -> filter.rated -> rerank.topn"。
func (p *Pipeline) Describe() string {
	s := ""
	for i, node := range p.Nodes {
		if i > 0 {
			s += " -> "
		}
		s += node.Name()
	}
	return s
}
