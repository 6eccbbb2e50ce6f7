// Package rating 是只追加的评分序列，也是模型训练的唯一数据来源。
package rating

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rushteam/recbot/core"
)

// Appender 是评分表的持久化端口（dataset.RatingTable 实现）。
type Appender interface {
	Append(r core.Rating) error
}

// Loader 从持久化表重建评分序列。
type Loader interface {
	Load() ([]core.Rating, error)
}

// Option 配置 Store。
type Option func(*Store)

// WithScale 设置合法评分区间，默认 [1, 5]。
func WithScale(s core.Scale) Option {
	return func(st *Store) { st.scale = s }
}

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(st *Store) {
		if l != nil {
			st.logger = l
		}
	}
}

// Store 在内存中保存与评分表一致的有序评分序列。
// 本层不检查用户/物品是否存在，这由门面在调用前完成。
type Store struct {
	mu      sync.RWMutex
	table   Appender
	scale   core.Scale
	logger  *zap.Logger
	ratings []core.Rating
}

// New 以 initial 为初始序列创建 Store。
func New(initial []core.Rating, table Appender, opts ...Option) *Store {
	s := &Store{
		table:  table,
		scale:  core.DefaultScale(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ratings = append(make([]core.Rating, 0, len(initial)), initial...)
	return s
}

// Scale 返回合法评分区间。
func (s *Store) Scale() core.Scale { return s.scale }

// Validate 校验评分值与 id，不产生任何副作用。
func (s *Store) Validate(r core.Rating) error {
	return s.scale.Validate(r)
}

// Append 校验并持久化一条评分，成功后才追加到内存。
// 校验失败返回 core.ErrInvalidRating，写表失败返回 core.ErrStorageFailure，两种情况内存都不变。
func (s *Store) Append(r core.Rating) error {
	if err := s.Validate(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		if err := s.table.Append(r); err != nil {
			s.logger.Error("persist rating failed",
				zap.Int64("user_id", r.UserID),
				zap.Int64("item_id", r.ItemID),
				zap.Error(err))
			return err
		}
	}
	s.ratings = append(s.ratings, r)
	return nil
}

// Load 用持久化表的内容替换内存序列，保持表中的插入顺序。
func (s *Store) Load(src Loader) error {
	ratings, err := src.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = ratings
	s.logger.Info("ratings loaded", zap.Int("count", len(ratings)))
	return nil
}

// Ratings 返回有序副本。
func (s *Store) Ratings() []core.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Rating, len(s.ratings))
	copy(out, s.ratings)
	return out
}

// Len 返回评分条数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// RatedItems 返回用户评过分的物品集合，值为最后一次评分。
func (s *Store) RatedItems(userID int64) map[int64]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]float64)
	for _, r := range s.ratings {
		if r.UserID == userID {
			out[r.ItemID] = r.Value
		}
	}
	return out
}

// ItemStat 是单个物品的评分统计。
type ItemStat struct {
	ItemID int64
	Count  int
	Mean   float64
}

// Popularity 返回每个物品的评分次数与均值，按物品首次出现的顺序。
func (s *Store) Popularity() []ItemStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[int64]int)
	var stats []ItemStat
	sums := make([]float64, 0)
	for _, r := range s.ratings {
		i, ok := index[r.ItemID]
		if !ok {
			i = len(stats)
			index[r.ItemID] = i
			stats = append(stats, ItemStat{ItemID: r.ItemID})
			sums = append(sums, 0)
		}
		stats[i].Count++
		sums[i] += r.Value
	}
	for i := range stats {
		stats[i].Mean = sums[i] / float64(stats[i].Count)
	}
	return stats
}
