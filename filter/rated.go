package filter

import (
	"context"

	"github.com/rushteam/recbot/core"
)

// RatedSource 提供用户已评分的物品集合，由 rating.Store 实现。
type RatedSource interface {
	RatedItems(userID int64) map[int64]float64
}

// RatedFilter 剔除用户已经评过分的物品。
//
// 在 FilterNode 中使用时，每次请求只查询一次已评分集合（见 Prepare）。
type RatedFilter struct {
	Source RatedSource
}

func NewRatedFilter(src RatedSource) *RatedFilter {
	return &RatedFilter{Source: src}
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID <= 0 || f.Source == nil {
		return false, nil
	}
	_, ok := f.Source.RatedItems(rctx.UserID)[item.ID]
	return ok, nil
}

// Prepare 返回绑定了本次请求已评分集合的过滤器。
func (f *RatedFilter) Prepare(_ context.Context, rctx *core.RecommendContext) (Filter, error) {
	if rctx == nil || rctx.UserID <= 0 || f.Source == nil {
		return f, nil
	}
	return &ratedSet{rated: f.Source.RatedItems(rctx.UserID)}, nil
}

type ratedSet struct {
	rated map[int64]float64
}

func (s *ratedSet) Name() string { return "filter.rated" }

func (s *ratedSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return false, nil
	}
	_, ok := s.rated[item.ID]
	return ok, nil
}
