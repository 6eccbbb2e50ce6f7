// Package engine 是推荐核心的门面：把身份、目录、评分与模型串成聊天命令层可直接调用的操作。
//
//	register  -> identity.Registry.Register
//	rate      -> 解析用户 -> 解析物品 -> rating.Store.Append -> Retrain
//	recommend -> 解析用户 -> 解析物品 -> model.Holder.Predict
//	top       -> 解析用户 -> Top-N pipeline
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recbot/catalog"
	"github.com/rushteam/recbot/config"
	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/dataset"
	"github.com/rushteam/recbot/identity"
	"github.com/rushteam/recbot/model"
	"github.com/rushteam/recbot/pipeline"
	"github.com/rushteam/recbot/rating"
	"github.com/rushteam/recbot/recall"
	"github.com/rushteam/recbot/store"
)

// IntentResolver 把自由文本改写成候选物品名，在 Catalog.Resolve 之前调用。
// 改写结果同样受匹配阈值约束。
type IntentResolver interface {
	ResolveIntent(ctx context.Context, text string) (string, error)
}

// IntentResolverFunc 让普通函数实现 IntentResolver。
type IntentResolverFunc func(ctx context.Context, text string) (string, error)

func (f IntentResolverFunc) ResolveIntent(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Deps 是门面依赖的已构建组件。
type Deps struct {
	Catalog  *catalog.Catalog
	Registry *identity.Registry
	Ratings  *rating.Store
	Logger   *zap.Logger
}

// Option 配置 Engine。
type Option func(*Engine)

// WithModelConfig 设置训练参数，默认 model.DefaultConfig()。
func WithModelConfig(cfg model.Config) Option {
	return func(e *Engine) { e.modelCfg = cfg }
}

// WithThreshold 设置模糊匹配阈值，默认 catalog.DefaultThreshold。
func WithThreshold(threshold int) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// WithIntentResolver 设置自由文本预处理。
func WithIntentResolver(r IntentResolver) Option {
	return func(e *Engine) { e.intent = r }
}

// WithPipelineConfig 设置 Top-N 节点链；为空时使用默认链。
func WithPipelineConfig(cfg pipeline.Config) Option {
	return func(e *Engine) { e.pipelineCfg = cfg }
}

// WithTopN 设置 Top-N 默认条数与上限。
func WithTopN(defaultN, maxN int) Option {
	return func(e *Engine) {
		e.defaultN = defaultN
		e.maxN = maxN
	}
}

// WithExporter 在每次训练后把隐向量发布到 s。
func WithExporter(s core.Store, keyPrefix string, ttl int) Option {
	return func(e *Engine) {
		e.exportStore = s
		e.exporter = recall.NewStoreMFAdapter(s, keyPrefix)
		e.exporter.TTL = ttl
	}
}

// WithClock 替换时间来源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine 是推荐门面。
//
// 并发约定：注册与“追加评分 + 重训练”由 mu 串行化；
// 读路径（解析、预测、Top-N）不拿 mu，只读取 model.Holder 中的快照。
type Engine struct {
	mu sync.Mutex

	catalog  *catalog.Catalog
	registry *identity.Registry
	ratings  *rating.Store
	holder   *model.Holder
	logger   *zap.Logger

	modelCfg    model.Config
	threshold   int
	intent      IntentResolver
	pipelineCfg pipeline.Config
	pipeline    *pipeline.Pipeline
	defaultN    int
	maxN        int
	exporter    *recall.StoreMFAdapter
	exportStore core.Store
	now         func() time.Time
}

// New 用已构建的组件组装门面；不训练模型，首次预测前需调用 Retrain。
func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Catalog == nil || deps.Registry == nil || deps.Ratings == nil {
		return nil, errors.New("engine: catalog, registry and ratings are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		catalog:   deps.Catalog,
		registry:  deps.Registry,
		ratings:   deps.Ratings,
		holder:    model.NewHolder(),
		logger:    logger,
		modelCfg:  model.DefaultConfig(),
		threshold: catalog.DefaultThreshold,
		defaultN:  10,
		maxN:      50,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.modelCfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.defaultN <= 0 {
		e.defaultN = 10
	}
	if e.maxN < e.defaultN {
		e.maxN = e.defaultN
	}

	p, err := e.buildPipeline()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.pipeline = p
	return e, nil
}

// Open 按配置并发加载三张表、构建组件并完成首次训练。
// 任何一张必需表不可读都会返回 STORAGE_FAILURE，调用方应视为致命错误。
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userTable := dataset.NewUserTable(cfg.Data.Users)
	ratingTable := dataset.NewRatingTable(cfg.Data.Ratings).WithScale(cfg.Model.Scale())

	var (
		items   []dataset.ItemRecord
		users   []core.User
		ratings []core.Rating
	)
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		items, err = dataset.ReadItems(cfg.Data.Items)
		return err
	})
	eg.Go(func() error {
		var err error
		users, err = userTable.Load()
		return err
	})
	eg.Go(func() error {
		var err error
		ratings, err = ratingTable.Load()
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logger.Info("tables loaded",
		zap.Int("items", len(items)),
		zap.Int("users", len(users)),
		zap.Int("ratings", len(ratings)))

	scale := cfg.Model.Scale()
	deps := Deps{
		Catalog:  catalog.New(items),
		Registry: identity.New(users, userTable, logger.Named("identity")),
		Ratings:  rating.New(ratings, ratingTable, rating.WithScale(scale), rating.WithLogger(logger.Named("rating"))),
		Logger:   logger,
	}

	opts := []Option{
		WithModelConfig(cfg.Model),
		WithThreshold(cfg.Catalog.Threshold),
		WithPipelineConfig(cfg.Pipeline),
		WithTopN(cfg.TopN.DefaultN, cfg.TopN.MaxN),
	}
	var exportStore core.Store
	if cfg.Export.Enabled {
		s, err := openExportStore(ctx, cfg.Export)
		if err != nil {
			return nil, err
		}
		exportStore = s
		opts = append(opts, WithExporter(s, cfg.Export.KeyPrefix, cfg.Export.TTL))
	}

	e, err := New(deps, opts...)
	if err != nil {
		if exportStore != nil {
			_ = exportStore.Close()
		}
		return nil, err
	}
	if err := e.Retrain(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func openExportStore(ctx context.Context, cfg config.ExportConfig) (core.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return store.NewRedisStore(ctx, cfg.Redis)
	default:
		return store.NewMemoryStore(), nil
	}
}

// Close 释放导出存储的连接。
func (e *Engine) Close() error {
	if e.exportStore != nil {
		return e.exportStore.Close()
	}
	return nil
}

// Catalog 返回物品目录。
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Registry 返回身份注册表。
func (e *Engine) Registry() *identity.Registry { return e.registry }

// Ratings 返回评分存储。
func (e *Engine) Ratings() *rating.Store { return e.ratings }

// Model 返回模型槽位。
func (e *Engine) Model() *model.Holder { return e.holder }

// Pipeline 返回 Top-N 节点链。
func (e *Engine) Pipeline() *pipeline.Pipeline { return e.pipeline }

// Exporter 返回隐向量发布器，未启用时为 nil。
func (e *Engine) Exporter() *recall.StoreMFAdapter { return e.exporter }
