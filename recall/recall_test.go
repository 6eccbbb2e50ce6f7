package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
	"github.com/rushteam/recbot/rating"
	"github.com/rushteam/recbot/store"
)

type staticSource struct {
	name  string
	items map[int64]float64
	order []int64
	err   error
	delay time.Duration
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.order))
	for _, id := range s.order {
		it := core.NewItem(id)
		it.Score = s.items[id]
		out = append(out, it)
	}
	return out, nil
}

type statsFunc func() []rating.ItemStat

func (f statsFunc) Popularity() []rating.ItemStat { return f() }

func itemIDs(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func byID(items []*core.Item) map[int64]*core.Item {
	out := make(map[int64]*core.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

func trainedHolder(t *testing.T) *model.Holder {
	t.Helper()
	ratings := []core.Rating{
		{UserID: 1, ItemID: 10, Value: 5}, {UserID: 1, ItemID: 11, Value: 1},
		{UserID: 2, ItemID: 10, Value: 4}, {UserID: 2, ItemID: 12, Value: 5},
		{UserID: 3, ItemID: 11, Value: 2}, {UserID: 3, ItemID: 12, Value: 4},
	}
	cfg := model.DefaultConfig()
	cfg.Factors = 2
	m, err := model.Train(context.Background(), ratings, cfg)
	require.NoError(t, err)
	h := model.NewHolder()
	h.Swap(m)
	return h
}

func TestFanout_MergeStrategies(t *testing.T) {
	mf := &staticSource{name: "recall.mf", order: []int64{1, 2}, items: map[int64]float64{1: 4.5, 2: 3.0}}
	pop := &staticSource{name: "recall.popular", order: []int64{2, 3}, items: map[int64]float64{2: 4.9, 3: 4.0}}
	ctx := context.Background()
	rctx := core.NewRecommendContext(1, "")

	t.Run("first", func(t *testing.T) {
		n := &Fanout{Sources: []Source{mf, pop}, Dedup: true}
		out, err := n.Process(ctx, rctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, itemIDs(out))
		two := byID(out)[2]
		assert.Equal(t, 3.0, two.Score)
		assert.Equal(t, "recall.mf|recall.popular", two.LabelValue(core.LabelRecallSource))
	})

	t.Run("priority", func(t *testing.T) {
		n := &Fanout{Sources: []Source{pop, mf}, Dedup: true, MergeStrategy: MergePriority}
		out, err := n.Process(ctx, rctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 1}, itemIDs(out))
		two := byID(out)[2]
		assert.Equal(t, 4.9, two.Score)
		assert.Equal(t, "0", two.LabelValue(core.LabelRecallPriority))
	})

	t.Run("union", func(t *testing.T) {
		n := &Fanout{Sources: []Source{mf, pop}, Dedup: true, MergeStrategy: MergeUnion}
		out, err := n.Process(ctx, rctx, nil)
		require.NoError(t, err)
		assert.Len(t, out, 4)
	})

	t.Run("no dedup", func(t *testing.T) {
		n := &Fanout{Sources: []Source{mf, pop}}
		out, err := n.Process(ctx, rctx, nil)
		require.NoError(t, err)
		assert.Len(t, out, 4)
	})
}

func TestFanout_FailingSourceIsSkipped(t *testing.T) {
	ok := &staticSource{name: "ok", order: []int64{1}, items: map[int64]float64{1: 1}}
	bad := &staticSource{name: "bad", err: errors.New("down")}
	slow := &staticSource{name: "slow", order: []int64{9}, delay: time.Second}

	n := &Fanout{
		Sources:       []Source{bad, slow, ok},
		Dedup:         true,
		Timeout:       20 * time.Millisecond,
		MaxConcurrent: 2,
		Logger:        zap.NewNop(),
	}
	out, err := n.Process(context.Background(), core.NewRecommendContext(1, ""), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, itemIDs(out))

	empty := &Fanout{}
	out, err = empty.Process(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMFRecall(t *testing.T) {
	h := trainedHolder(t)
	r := &MFRecall{Model: h, TopK: 2}
	ctx := context.Background()

	out, err := r.Recall(ctx, core.NewRecommendContext(1, ""))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.GreaterOrEqual(t, out[0].Score, out[1].Score)
	for _, it := range out {
		assert.Equal(t, h.Predict(1, it.ID).Value, it.Score)
	}

	// 冷启动用户、未训练模型
	out, err = r.Recall(ctx, core.NewRecommendContext(99, ""))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = (&MFRecall{Model: model.NewHolder()}).Recall(ctx, core.NewRecommendContext(1, ""))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPopular(t *testing.T) {
	stats := statsFunc(func() []rating.ItemStat {
		return []rating.ItemStat{
			{ItemID: 5, Count: 1, Mean: 5},
			{ItemID: 3, Count: 3, Mean: 3.5},
			{ItemID: 4, Count: 3, Mean: 4.0},
			{ItemID: 1, Count: 3, Mean: 4.0},
		}
	})

	out, err := (&Popular{Stats: stats, TopK: 3}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 3}, itemIDs(out))
	assert.Equal(t, 4.0, out[0].Score)
	assert.Equal(t, int64(3), out[0].Meta["count"])

	out, err = (&Popular{Stats: stats, MinCount: 2}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.NotContains(t, itemIDs(out), int64(5))

	out, err = (&Popular{}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStoreMFAdapter_PublishAndRecall(t *testing.T) {
	h := trainedHolder(t)
	s := store.NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	a := NewStoreMFAdapter(s, "")
	assert.Equal(t, "mf", a.KeyPrefix)

	n, err := a.Publish(ctx, h.Current())
	require.NoError(t, err)
	assert.Equal(t, 3+3+1, n)

	want, _ := h.Current().UserVector(1)
	got, err := a.GetUserVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	missing, err := a.GetUserVector(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, missing)

	items, err := a.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, items)

	vecs, err := a.GetAllItemVectors(ctx)
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	iv, err := a.GetItemVector(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, iv, vecs[12])

	r := &StoreMFRecall{Store: a, TopK: 10}
	out, err := r.Recall(ctx, core.NewRecommendContext(1, ""))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, dotProduct(want, vecs[out[0].ID]), out[0].Score)
	assert.GreaterOrEqual(t, out[0].Score, out[2].Score)

	out, err = r.Recall(ctx, core.NewRecommendContext(99, ""))
	require.NoError(t, err)
	assert.Empty(t, out)

	n, err = a.Publish(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreMFAdapter_Empty(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	a := NewStoreMFAdapter(s, "recbot")

	vecs, err := a.GetAllItemVectors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
