package model

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recbot/core"
)

// MF 是带偏置的矩阵分解模型（显式评分）。
//
// 预测公式：r̂(u,i) = μ + b_u + b_i + x_u · y_i，结果截断到评分区间。
//
// 训练方式：交替最小二乘（ALS）。固定物品侧时，每个用户的 [b_u, x_u]
// 是一个岭回归问题，闭式求解；随后固定用户侧求解物品，如此交替。
// 正则按观测数加权（λ·n_u / λ·n_i）。
//
// 重复评分：同一 (用户, 物品) 的每条历史评分都作为一次独立观测参与拟合。
//
// 训练完成后 MF 不再修改，可被多个 goroutine 并发读取。
type MF struct {
	cfg   Config
	scale core.Scale

	mean       float64
	numRatings int

	userIndex map[int64]int
	itemIndex map[int64]int
	users     []int64
	items     []int64

	userBias []float64
	itemBias []float64
	X        [][]float64 // 用户隐向量 (numUsers x factors)
	Y        [][]float64 // 物品隐向量 (numItems x factors)
}

type observation struct {
	u, i  int
	value float64
}

// Train 在全部评分上做一次完整的批量拟合，返回新的模型。
// 相同的 ratings（含顺序）与 cfg 得到逐位相同的结果。
func Train(ctx context.Context, ratings []core.Rating, cfg Config) (*MF, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &MF{
		cfg:        cfg,
		scale:      cfg.Scale(),
		numRatings: len(ratings),
		userIndex:  make(map[int64]int),
		itemIndex:  make(map[int64]int),
	}

	obs := make([]observation, 0, len(ratings))
	var sum float64
	for _, r := range ratings {
		u, ok := m.userIndex[r.UserID]
		if !ok {
			u = len(m.users)
			m.userIndex[r.UserID] = u
			m.users = append(m.users, r.UserID)
		}
		i, ok := m.itemIndex[r.ItemID]
		if !ok {
			i = len(m.items)
			m.itemIndex[r.ItemID] = i
			m.items = append(m.items, r.ItemID)
		}
		obs = append(obs, observation{u: u, i: i, value: r.Value})
		sum += r.Value
	}
	if len(obs) == 0 {
		return m, nil
	}
	m.mean = sum / float64(len(obs))

	// 按评分顺序建立倒排，保证求和顺序固定
	byUser := make([][]int, len(m.users))
	byItem := make([][]int, len(m.items))
	for k, o := range obs {
		byUser[o.u] = append(byUser[o.u], k)
		byItem[o.i] = append(byItem[o.i], k)
	}

	m.init()

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.solveSide(ctx, byUser, obs, true); err != nil {
			return nil, err
		}
		if err := m.solveSide(ctx, byItem, obs, false); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// init 用固定种子初始化隐向量，偏置从 0 开始。
func (m *MF) init() {
	rng := rand.New(rand.NewSource(m.cfg.Seed)) //nolint:gosec // 仅用于可复现的初始化
	k := m.cfg.Factors

	m.userBias = make([]float64, len(m.users))
	m.itemBias = make([]float64, len(m.items))
	m.X = make([][]float64, len(m.users))
	for u := range m.X {
		m.X[u] = make([]float64, k)
		for f := range m.X[u] {
			m.X[u][f] = rng.NormFloat64() * m.cfg.InitStdDev
		}
	}
	m.Y = make([][]float64, len(m.items))
	for i := range m.Y {
		m.Y[i] = make([]float64, k)
		for f := range m.Y[i] {
			m.Y[i][f] = rng.NormFloat64() * m.cfg.InitStdDev
		}
	}
}

// solveSide 固定另一侧，对 users（userSide=true）或 items 的每一行求解岭回归。
// 各行互相独立，按 Workers 并行。
func (m *MF) solveSide(ctx context.Context, index [][]int, obs []observation, userSide bool) error {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	n := len(index)
	chunk := (n + workers - 1) / workers

	eg, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		eg.Go(func() error {
			for row := start; row < end; row++ {
				if row%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if userSide {
					m.userBias[row], m.X[row] = m.solveRow(index[row], obs, true)
				} else {
					m.itemBias[row], m.Y[row] = m.solveRow(index[row], obs, false)
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// solveRow 求解单行的 [bias, factors]：
//
//	A = Σ z zᵀ + diag(λb·n, λ·n, ..., λ·n)
//	b = Σ z · (r - μ - 对侧偏置)
//
// 其中 z = [1, 对侧隐向量]。
func (m *MF) solveRow(rows []int, obs []observation, userSide bool) (float64, []float64) {
	k := m.cfg.Factors
	dim := k + 1

	A := make([][]float64, dim)
	for f := range A {
		A[f] = make([]float64, dim)
	}
	b := make([]float64, dim)
	z := make([]float64, dim)
	z[0] = 1

	for _, idx := range rows {
		o := obs[idx]
		var other []float64
		var target float64
		if userSide {
			other = m.Y[o.i]
			target = o.value - m.mean - m.itemBias[o.i]
		} else {
			other = m.X[o.u]
			target = o.value - m.mean - m.userBias[o.u]
		}
		copy(z[1:], other)

		for f1 := 0; f1 < dim; f1++ {
			for f2 := f1; f2 < dim; f2++ {
				A[f1][f2] += z[f1] * z[f2]
			}
			b[f1] += z[f1] * target
		}
	}
	for f1 := 0; f1 < dim; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			A[f1][f2] = A[f2][f1]
		}
	}

	n := float64(len(rows))
	A[0][0] += m.cfg.BiasRegularization * n
	for f := 1; f < dim; f++ {
		A[f][f] += m.cfg.Regularization * n
	}

	x := solveLinearSystem(A, b)
	return x[0], x[1:]
}

// solveLinearSystem 用 Cholesky 分解求解对称正定方程组 A x = b。
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// L z = b
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Lᵀ x = z
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}
	return x
}

func (m *MF) Name() string { return "mf.als" }

// Predict 返回截断后的估计值；用户或物品未出现在训练数据中时返回 Known=false。
func (m *MF) Predict(userID, itemID int64) Estimate {
	u, ok := m.userIndex[userID]
	if !ok {
		return Unknown(ReasonUnknownUser)
	}
	i, ok := m.itemIndex[itemID]
	if !ok {
		return Unknown(ReasonUnknownItem)
	}
	v := m.mean + m.userBias[u] + m.itemBias[i] + dot(m.X[u], m.Y[i])
	return Estimate{Value: m.scale.Clip(v), Known: true}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// GlobalMean 返回训练评分均值。
func (m *MF) GlobalMean() float64 { return m.mean }

// NumRatings 返回参与训练的评分条数。
func (m *MF) NumRatings() int { return m.numRatings }

// Factors 返回隐向量维度。
func (m *MF) Factors() int { return m.cfg.Factors }

// Users 返回训练数据中出现过的用户 id（首次出现顺序）。
func (m *MF) Users() []int64 { return append([]int64(nil), m.users...) }

// Items 返回训练数据中出现过的物品 id（首次出现顺序）。
func (m *MF) Items() []int64 { return append([]int64(nil), m.items...) }

// HasUser 判断用户是否有训练得到的隐向量。
func (m *MF) HasUser(userID int64) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// HasItem 判断物品是否有训练得到的隐向量。
func (m *MF) HasItem(itemID int64) bool {
	_, ok := m.itemIndex[itemID]
	return ok
}

// UserVector 返回用户隐向量副本。
func (m *MF) UserVector(userID int64) ([]float64, bool) {
	u, ok := m.userIndex[userID]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), m.X[u]...), true
}

// ItemVector 返回物品隐向量副本。
func (m *MF) ItemVector(itemID int64) ([]float64, bool) {
	i, ok := m.itemIndex[itemID]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), m.Y[i]...), true
}

// UserBias 返回用户偏置。
func (m *MF) UserBias(userID int64) (float64, bool) {
	u, ok := m.userIndex[userID]
	if !ok {
		return 0, false
	}
	return m.userBias[u], true
}

// ItemBias 返回物品偏置。
func (m *MF) ItemBias(itemID int64) (float64, bool) {
	i, ok := m.itemIndex[itemID]
	if !ok {
		return 0, false
	}
	return m.itemBias[i], true
}
