package filter

import (
	"context"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述“保留条件”：表达式为 false 的候选被剔除。
//
// 示例：`item.score >= 3.5`、`item.meta.count >= 5`。
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，语法错误在构建期返回。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string {
	return f.program.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.program.Match(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
