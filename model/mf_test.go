package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recbot/core"
)

// 两组口味相反的用户：1/2 喜欢 10/11，3/4 喜欢 12/13。
func tasteRatings() []core.Rating {
	return []core.Rating{
		{UserID: 1, ItemID: 10, Value: 5}, {UserID: 1, ItemID: 11, Value: 5}, {UserID: 1, ItemID: 12, Value: 1},
		{UserID: 2, ItemID: 10, Value: 5}, {UserID: 2, ItemID: 11, Value: 4}, {UserID: 2, ItemID: 12, Value: 1}, {UserID: 2, ItemID: 13, Value: 2},
		{UserID: 3, ItemID: 10, Value: 1}, {UserID: 3, ItemID: 12, Value: 5}, {UserID: 3, ItemID: 13, Value: 5},
		{UserID: 4, ItemID: 11, Value: 1}, {UserID: 4, ItemID: 12, Value: 5}, {UserID: 4, ItemID: 13, Value: 4},
	}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Factors = 3
	cfg.Iterations = 20
	cfg.Regularization = 0.05
	cfg.BiasRegularization = 0.05
	cfg.Workers = 2
	return cfg
}

func TestTrain_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, err := Train(ctx, tasteRatings(), smallConfig())
	require.NoError(t, err)
	b, err := Train(ctx, tasteRatings(), smallConfig())
	require.NoError(t, err)

	for _, u := range a.Users() {
		for _, i := range a.Items() {
			assert.Equal(t, a.Predict(u, i), b.Predict(u, i), "user=%d item=%d", u, i)
		}
	}
	va, _ := a.UserVector(1)
	vb, _ := b.UserVector(1)
	assert.Equal(t, va, vb)
}

func TestTrain_WorkerCountDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()
	one := smallConfig()
	one.Workers = 1
	many := smallConfig()
	many.Workers = 8

	a, err := Train(ctx, tasteRatings(), one)
	require.NoError(t, err)
	b, err := Train(ctx, tasteRatings(), many)
	require.NoError(t, err)
	assert.Equal(t, a.Predict(2, 13), b.Predict(2, 13))
}

func TestTrain_LearnsTaste(t *testing.T) {
	m, err := Train(context.Background(), tasteRatings(), smallConfig())
	require.NoError(t, err)

	// 用户 1 没评过 13，与用户 2 口味一致，应低于其喜欢的 10
	assert.Greater(t, m.Predict(1, 10).Value, m.Predict(1, 13).Value)
	// 用户 3 没评过 11，应低于其喜欢的 12
	assert.Greater(t, m.Predict(3, 12).Value, m.Predict(3, 11).Value)
	// 训练集上的误差应明显小于评分区间
	var se float64
	for _, r := range tasteRatings() {
		d := m.Predict(r.UserID, r.ItemID).Value - r.Value
		se += d * d
	}
	rmse := math.Sqrt(se / float64(len(tasteRatings())))
	assert.Less(t, rmse, 1.0)
}

func TestPredict_ColdStart(t *testing.T) {
	m, err := Train(context.Background(), tasteRatings(), smallConfig())
	require.NoError(t, err)

	est := m.Predict(99, 10)
	assert.False(t, est.Known)
	assert.Equal(t, ReasonUnknownUser, est.Reason)

	est = m.Predict(1, 999)
	assert.False(t, est.Known)
	assert.Equal(t, ReasonUnknownItem, est.Reason)

	_, ok := m.UserVector(99)
	assert.False(t, ok)
	assert.False(t, m.HasItem(999))
}

func TestPredict_ClippedToScale(t *testing.T) {
	ratings := []core.Rating{
		{UserID: 1, ItemID: 1, Value: 5}, {UserID: 1, ItemID: 2, Value: 5},
		{UserID: 2, ItemID: 1, Value: 5}, {UserID: 2, ItemID: 2, Value: 5},
	}
	cfg := smallConfig()
	cfg.Regularization = 0.001
	cfg.BiasRegularization = 0.001
	m, err := Train(context.Background(), ratings, cfg)
	require.NoError(t, err)

	for _, u := range []int64{1, 2} {
		for _, i := range []int64{1, 2} {
			est := m.Predict(u, i)
			require.True(t, est.Known)
			assert.GreaterOrEqual(t, est.Value, core.DefaultMinRating*1.0)
			assert.LessOrEqual(t, est.Value, core.DefaultMaxRating*1.0)
		}
	}
	assert.InDelta(t, 5.0, m.GlobalMean(), 1e-9)
}

func TestTrain_DuplicateRatingsCountEqually(t *testing.T) {
	ratings := []core.Rating{
		{UserID: 1, ItemID: 1, Value: 1},
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 1, ItemID: 1, Value: 5},
	}
	m, err := Train(context.Background(), ratings, smallConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumRatings())
	assert.InDelta(t, 11.0/3.0, m.GlobalMean(), 1e-9)
	assert.Equal(t, []int64{1}, m.Users())
	assert.Equal(t, []int64{1}, m.Items())
}

func TestTrain_Empty(t *testing.T) {
	m, err := Train(context.Background(), nil, smallConfig())
	require.NoError(t, err)
	assert.Empty(t, m.Users())
	assert.False(t, m.Predict(1, 1).Known)
}

func TestTrain_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Factors = 0
	_, err := Train(context.Background(), tasteRatings(), cfg)
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.MinRating, cfg.MaxRating = 5, 1
	_, err = Train(context.Background(), tasteRatings(), cfg)
	assert.Error(t, err)
}

func TestTrain_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Train(ctx, tasteRatings(), smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveLinearSystem(t *testing.T) {
	A := [][]float64{{4, 2}, {2, 3}}
	b := []float64{2, 5}
	x := solveLinearSystem(A, b)
	// 4x+2y=2, 2x+3y=5 => x=-0.5, y=2
	assert.InDelta(t, -0.5, x[0], 1e-9)
	assert.InDelta(t, 2.0, x[1], 1e-9)
}

func TestHolder(t *testing.T) {
	h := NewHolder()
	assert.Equal(t, StateUntrained, h.State())
	assert.Equal(t, int64(0), h.Version())

	est := h.Predict(1, 10)
	assert.False(t, est.Known)
	assert.Equal(t, ReasonUntrained, est.Reason)

	m, err := Train(context.Background(), tasteRatings(), smallConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Swap(m))
	assert.Equal(t, StateTrained, h.State())
	assert.Same(t, m, h.Current())
	assert.False(t, h.TrainedAt().IsZero())
	assert.Equal(t, m.Predict(1, 10), h.Predict(1, 10))

	assert.Equal(t, int64(2), h.Swap(m))
}

func TestHolder_SnapshotPairsModelAndVersion(t *testing.T) {
	h := NewHolder()
	cur, v := h.Snapshot()
	assert.Nil(t, cur)
	assert.Equal(t, int64(0), v)

	odd, err := Train(context.Background(), tasteRatings(), smallConfig())
	require.NoError(t, err)
	even, err := Train(context.Background(), tasteRatings(), smallConfig())
	require.NoError(t, err)

	// 唯一的写者：第 i 次 Swap 得到版本 i，奇数版本对应 odd
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 200; i++ {
			if i%2 == 1 {
				h.Swap(odd)
			} else {
				h.Swap(even)
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		cur, v := h.Snapshot()
		switch {
		case v == 0:
			assert.Nil(t, cur)
		case v%2 == 1:
			assert.Same(t, odd, cur, "version %d", v)
		default:
			assert.Same(t, even, cur, "version %d", v)
		}
	}
	<-done

	cur, v = h.Snapshot()
	assert.Same(t, even, cur)
	assert.Equal(t, int64(200), v)
}
