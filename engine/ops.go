package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/recbot/catalog"
	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
)

// Submission 是一次成功评分的结果。
type Submission struct {
	UserID       int64
	Match        catalog.Match
	Rating       core.Rating
	ModelVersion int64
}

// Prediction 是一次预测的结果；Estimate.Known 为 false 表示冷启动。
type Prediction struct {
	UserID       int64
	Match        catalog.Match
	Estimate     model.Estimate
	ModelVersion int64
}

// RegisterUser 绑定外部身份与显示名，返回新分配的内部 id。不涉及模型。
func (e *Engine) RegisterUser(_ context.Context, externalID, displayName string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Register(externalID, displayName)
}

// SubmitRating 解析用户与物品，追加评分，然后同步重训练。
//
// 追加失败（越界、持久化失败）时不会重训练，内存与表都不变。
// 追加成功后的训练不受 ctx 取消影响，返回时模型已包含这条评分。
func (e *Engine) SubmitRating(ctx context.Context, externalID, itemQuery string, value float64) (Submission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	userID, err := e.registry.ResolveByExternalID(externalID)
	if err != nil {
		return Submission{}, err
	}
	match, err := e.resolveItem(ctx, itemQuery)
	if err != nil {
		return Submission{}, err
	}

	r := core.Rating{
		UserID:    userID,
		ItemID:    match.ItemID,
		Value:     value,
		Timestamp: e.now().Unix(),
	}
	if err := e.ratings.Append(r); err != nil {
		e.logger.Info("rating rejected",
			zap.String("external_id", externalID),
			zap.Int64("item_id", match.ItemID),
			zap.Float64("value", value),
			zap.Error(err))
		return Submission{}, err
	}

	version, err := e.retrainLocked(context.WithoutCancel(ctx))
	if err != nil {
		return Submission{UserID: userID, Match: match, Rating: r}, err
	}
	return Submission{UserID: userID, Match: match, Rating: r, ModelVersion: version}, nil
}

// Recommend 解析用户与物品后预测评分。
func (e *Engine) Recommend(ctx context.Context, externalID, itemQuery string) (Prediction, error) {
	userID, err := e.registry.ResolveByExternalID(externalID)
	if err != nil {
		return Prediction{}, err
	}
	match, err := e.resolveItem(ctx, itemQuery)
	if err != nil {
		return Prediction{}, err
	}
	return e.predict(userID, match), nil
}

// RecommendByID 直接按内部数值 id 预测，id 不在训练数据中时返回冷启动结果。
func (e *Engine) RecommendByID(_ context.Context, userID, itemID int64) Prediction {
	match := catalog.Match{ItemID: itemID}
	if title, ok := e.catalog.Title(itemID); ok {
		match.Title = title
		match.Score = 100
	}
	return e.predict(userID, match)
}

func (e *Engine) predict(userID int64, match catalog.Match) Prediction {
	m, version := e.holder.Snapshot()
	p := Prediction{UserID: userID, Match: match, ModelVersion: version}
	if m == nil {
		p.Estimate = model.Unknown(model.ReasonUntrained)
		return p
	}
	p.Estimate = m.Predict(userID, match.ItemID)
	return p
}

// resolveItem 先经过可选的意图解析，再做模糊匹配。
func (e *Engine) resolveItem(ctx context.Context, query string) (catalog.Match, error) {
	q := query
	if e.intent != nil {
		rewritten, err := e.intent.ResolveIntent(ctx, query)
		if err != nil {
			return catalog.Match{}, core.ErrItemNotFound.Wrap(err, query)
		}
		q = rewritten
	}
	return e.catalog.Resolve(q, e.threshold)
}

// TopN 为用户列出预测评分最高、且尚未评过分的物品。n <= 0 时取默认条数，超过上限时截断。
func (e *Engine) TopN(ctx context.Context, externalID string, n int) ([]*core.Item, error) {
	userID, err := e.registry.ResolveByExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = e.defaultN
	}
	if n > e.maxN {
		n = e.maxN
	}

	rctx := core.NewRecommendContext(userID, externalID)
	rctx.Params["n"] = n
	m := e.holder.Current()
	if m == nil || !m.HasUser(userID) {
		rctx.PutLabel("cold_start", core.Label{Value: "true", Source: "engine"})
	}

	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if title, ok := e.catalog.Title(it.ID); ok {
			it.Title = title
		}
	}
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

// Retrain 在当前全部评分上重新训练并替换模型。
func (e *Engine) Retrain(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.retrainLocked(ctx)
	return err
}

func (e *Engine) retrainLocked(ctx context.Context) (int64, error) {
	start := time.Now()
	ratings := e.ratings.Ratings()

	m, err := model.Train(ctx, ratings, e.modelCfg)
	if err != nil {
		e.logger.Error("train failed", zap.Int("ratings", len(ratings)), zap.Error(err))
		return 0, err
	}
	version := e.holder.Swap(m)
	e.logger.Info("model trained",
		zap.Int64("version", version),
		zap.Int("ratings", len(ratings)),
		zap.Int("users", len(m.Users())),
		zap.Int("items", len(m.Items())),
		zap.Duration("took", time.Since(start)))

	if e.exporter != nil {
		n, err := e.exporter.Publish(ctx, m)
		if err != nil {
			e.logger.Warn("factor export failed", zap.Int64("version", version), zap.Error(err))
		} else {
			e.logger.Debug("factors exported", zap.Int64("version", version), zap.Int("keys", n))
		}
	}
	return version, nil
}
