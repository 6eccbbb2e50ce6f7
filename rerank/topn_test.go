package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recbot/core"
)

func scored(pairs ...float64) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		it := core.NewItem(int64(pairs[i]))
		it.Score = pairs[i+1]
		out = append(out, it)
	}
	return out
}

func order(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		param any
		in    []*core.Item
		want  []int64
	}{
		{name: "sort and cut", n: 2, in: scored(1, 3.0, 2, 4.5, 3, 4.0), want: []int64{2, 3}},
		{name: "ties by id", n: 3, in: scored(9, 4.0, 3, 4.0, 5, 4.0, 1, 1.0), want: []int64{3, 5, 9}},
		{name: "no cut", n: 0, in: scored(1, 1.0, 2, 2.0), want: []int64{2, 1}},
		{name: "n larger than input", n: 10, in: scored(1, 1.0), want: []int64{1}},
		{name: "param overrides", n: 1, param: 2, in: scored(1, 1.0, 2, 2.0, 3, 3.0), want: []int64{3, 2}},
		{name: "nil items dropped", n: 5, in: append(scored(1, 1.0), nil), want: []int64{1}},
		{name: "empty", n: 5, in: nil, want: []int64{}},
		{name: "duplicate ids keep best", n: 3, in: scored(1, 2.0, 2, 3.0, 1, 4.0, 2, 1.0, 3, 2.5), want: []int64{1, 2, 3}},
		{name: "duplicates do not eat the limit", n: 2, in: scored(5, 4.0, 5, 4.0, 5, 3.0, 6, 1.0), want: []int64{5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := core.NewRecommendContext(1, "")
			if tt.param != nil {
				rctx.Params["n"] = tt.param
			}
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), rctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, order(out))
		})
	}
}
