package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/filter"
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/pkg/metrics"
	"github.com/rushteam/simrec/recall"
	"github.com/rushteam/simrec/rerank"
)

// Status 查询结果状态
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not_found"
	StatusNoEmbedding Status = "no_embedding"
)

// Recommendation 单条推荐结果
type Recommendation struct {
	ItemID     int64   `json:"movie_id"`
	Title      string  `json:"title"`
	Genres     string  `json:"genres"`
	Similarity float64 `json:"similarity"`
}

// Result 一次查询的结果。Status 非 ok 时 Items 为空。
type Result struct {
	ItemID int64            `json:"movie_id"`
	Status Status           `json:"status"`
	Items  []Recommendation `json:"items"`
}

// QueryConfig 查询配置
type QueryConfig struct {
	// NProbe 查询探测桶数量
	NProbe int `koanf:"nprobe"`

	// Filter 可选的 CEL 过滤表达式，为 true 的候选保留
	Filter string `koanf:"filter"`

	// Pipeline 可选的 Pipeline YAML/JSON 配置路径，覆盖默认节点链
	Pipeline string `koanf:"pipeline"`
}

// DefaultQueryConfig 返回默认查询配置
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{NProbe: DefaultQueryNProbe}
}

// DefaultPipeline 构建默认查询链：
// recall.similar → filter(self[, expr]) → rerank.sort → rerank.topn → catalog.enrich。
// 配置了过滤表达式时，元数据回填提前到过滤之前。
func DefaultPipeline(deps pipeline.Dependencies, cfg QueryConfig) (*pipeline.Pipeline, error) {
	enrich := &catalog.EnrichNode{Reader: deps.Metadata, Logger: deps.Logger}
	filters := []filter.Filter{filter.SelfFilter{}}
	if cfg.Filter != "" {
		expr, err := filter.NewExprFilter(cfg.Filter, false)
		if err != nil {
			return nil, err
		}
		filters = append(filters, expr)
	}

	nodes := []pipeline.Node{&recall.SimilarItems{Service: deps.Similarity}}
	if cfg.Filter != "" {
		nodes = append(nodes, enrich)
	}
	nodes = append(nodes,
		&filter.FilterNode{Filters: filters, Logger: deps.Logger},
		rerank.SimilaritySort{},
		&rerank.TopNNode{},
	)
	if cfg.Filter == "" {
		nodes = append(nodes, enrich)
	}
	return &pipeline.Pipeline{Nodes: nodes, Logger: deps.Logger}, nil
}

// RecommendOption 单次查询选项，写入 RecommendContext.Params。
type RecommendOption func(*core.RecommendContext)

// WithNProbe 覆盖本次查询探测的倒排桶数量；n <= 0 时忽略。
func WithNProbe(n int) RecommendOption {
	return func(rctx *core.RecommendContext) {
		if n > 0 {
			rctx.Params[recall.ParamNProbe] = n
		}
	}
}

// WithParam 设置请求参数，过滤表达式中以 rctx.params.<key> 读取。
func WithParam(key string, value any) RecommendOption {
	return func(rctx *core.RecommendContext) { rctx.Params[key] = value }
}

// Recommender 执行相似物品查询，可并发调用。
type Recommender struct {
	index    *IndexContext
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

func NewRecommender(index *IndexContext, p *pipeline.Pipeline, logger zerolog.Logger) *Recommender {
	return &Recommender{index: index, pipeline: p, logger: logger}
}

// Recommend 返回与 itemID 最相似的至多 topN 个物品，不包含 itemID 自身。
// 未知物品与无向量物品通过 Result.Status 表达，不返回错误。
// 自定义 Pipeline 漏掉 self 过滤或 topn 截断时，这里兜底。
func (r *Recommender) Recommend(ctx context.Context, itemID int64, topN int, opts ...RecommendOption) (*Result, error) {
	start := time.Now()
	if topN <= 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: top_n must be positive")
	}
	res := &Result{ItemID: itemID, Status: StatusOK, Items: []Recommendation{}}

	row, ok := r.index.Resolve(itemID)
	switch {
	case !ok:
		res.Status = StatusNotFound
	case row < 0:
		res.Status = StatusNoEmbedding
	}
	if res.Status != StatusOK {
		metrics.RecordRecommend(string(res.Status))
		r.logger.Debug().Int64("item_id", itemID).Str("status", string(res.Status)).Msg("recommend skipped")
		return res, nil
	}

	rctx := core.NewRecommendContext(itemID, topN)
	for _, opt := range opts {
		opt(rctx)
	}
	items, err := r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		metrics.RecordRecommend("error")
		return nil, err
	}
	for _, it := range items {
		if it == nil || it.ID == itemID {
			continue
		}
		if len(res.Items) == topN {
			break
		}
		res.Items = append(res.Items, Recommendation{
			ItemID:     it.ID,
			Title:      it.MetaString("title"),
			Genres:     it.MetaString("genres"),
			Similarity: it.Score,
		})
	}
	metrics.RecordRecommend(string(res.Status))
	r.logger.Debug().
		Int64("item_id", itemID).
		Int("top_n", topN).
		Int("returned", len(res.Items)).
		Dur("took", time.Since(start)).
		Msg("recommend done")
	return res, nil
}
