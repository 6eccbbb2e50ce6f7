package engine

import (
	"fmt"
	"time"

	"github.com/rushteam/recbot/filter"
	"github.com/rushteam/recbot/pipeline"
	"github.com/rushteam/recbot/pkg/conv"
	"github.com/rushteam/recbot/rank"
	"github.com/rushteam/recbot/recall"
	"github.com/rushteam/recbot/rerank"
)

// 节点类型
const (
	NodeRecallFanout    = "recall.fanout"
	NodeFilterRated     = "filter.rated"
	NodeFilterExpr      = "filter.expr"
	NodeFilterBlacklist = "filter.blacklist"
	NodeRankMF          = "rank.mf"
	NodeRerankTopN      = "rerank.topn"
)

// 召回源类型（recall.fanout 的 sources[].type）
const (
	SourceMF      = "mf"
	SourcePopular = "popular"
	SourceMFStore = "mf_store"
)

// buildPipeline 按配置构建 Top-N 链；未配置时为 fanout(mf, popular) -> rated -> rank.mf -> topn。
func (e *Engine) buildPipeline() (*pipeline.Pipeline, error) {
	if e.pipelineCfg.Empty() {
		return e.defaultPipeline(), nil
	}
	return e.pipelineCfg.BuildPipeline(e.nodeFactory())
}

func (e *Engine) defaultPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.MFRecall{Model: e.holder, TopK: e.maxN * 4},
					&recall.Popular{Stats: e.ratings, TopK: e.maxN * 4},
				},
				Dedup:         true,
				MergeStrategy: recall.MergePriority,
				Logger:        e.logger.Named("recall"),
			},
			&filter.FilterNode{Filters: []filter.Filter{filter.NewRatedFilter(e.ratings)}},
			&rank.MFNode{Model: e.holder},
			&rerank.TopNNode{N: e.defaultN},
		},
	}
}

// nodeFactory 注册与本引擎实例绑定的节点构建器。
func (e *Engine) nodeFactory() *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()
	f.Register(NodeRecallFanout, e.buildFanoutNode)
	f.Register(NodeFilterRated, func(map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewRatedFilter(e.ratings)}}, nil
	})
	f.Register(NodeFilterExpr, buildExprNode)
	f.Register(NodeFilterBlacklist, e.buildBlacklistNode)
	f.Register(NodeRankMF, func(map[string]any) (pipeline.Node, error) {
		return &rank.MFNode{Model: e.holder}, nil
	})
	f.Register(NodeRerankTopN, func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", int64(e.defaultN)))}, nil
	})
	return f
}

func (e *Engine) buildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig := conv.SliceOfMaps(cfg["sources"])
	if len(sourcesConfig) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	defaultK := int64(e.maxN * 4)
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		topK := int(conv.ConfigGetInt64(sc, "top_k", defaultK))
		switch t := conv.ConfigGet(sc, "type", ""); t {
		case SourceMF:
			sources = append(sources, &recall.MFRecall{Model: e.holder, TopK: topK})
		case SourcePopular:
			sources = append(sources, &recall.Popular{
				Stats:    e.ratings,
				TopK:     topK,
				MinCount: int(conv.ConfigGetInt64(sc, "min_count", 0)),
			})
		case SourceMFStore:
			if e.exporter == nil {
				return nil, fmt.Errorf("source %s requires export to be enabled", SourceMFStore)
			}
			sources = append(sources, &recall.StoreMFRecall{Store: e.exporter, TopK: topK})
		default:
			return nil, fmt.Errorf("unknown source type: %q", t)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", recall.MergePriority),
		Logger:        e.logger.Named("recall"),
	}
	if ms := conv.ConfigGetInt64(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	switch fanout.MergeStrategy {
	case recall.MergeFirst, recall.MergeUnion, recall.MergePriority:
	default:
		return nil, fmt.Errorf("unknown merge_strategy: %q", fanout.MergeStrategy)
	}
	return fanout, nil
}

func buildExprNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func (e *Engine) buildBlacklistNode(cfg map[string]any) (pipeline.Node, error) {
	var ids []int64
	if raw, ok := cfg["ids"].([]any); ok {
		for _, v := range raw {
			id, ok := conv.ToInt64(v)
			if !ok {
				return nil, fmt.Errorf("blacklist id %v is not a number", v)
			}
			ids = append(ids, id)
		}
	}
	key := conv.ConfigGet(cfg, "key", "")
	if key != "" && e.exportStore == nil {
		return nil, fmt.Errorf("blacklist key requires export to be enabled")
	}
	return &filter.FilterNode{Filters: []filter.Filter{filter.NewBlacklistFilter(ids, e.exportStore, key)}}, nil
}
