package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/embed"
	"github.com/rushteam/simrec/feature"
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/pkg/metrics"
	"github.com/rushteam/simrec/vector"
)

// IndexFile 索引文件名
const IndexFile = "movie_recommendations.index"

// ErrNothingToIndex 所有物品都没有可检索的向量
var ErrNothingToIndex = core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: no item has a usable embedding")

// Options 构建与加载参数
type Options struct {
	Embed embed.Config
	Index vector.ManagerConfig
	Query QueryConfig
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		Embed: embed.DefaultConfig(),
		Index: vector.DefaultManagerConfig(),
		Query: DefaultQueryConfig(),
	}
}

// PipelineFactory 根据依赖构建查询 Pipeline
type PipelineFactory func(deps pipeline.Dependencies) (*pipeline.Pipeline, error)

type engineOptions struct {
	logger   zerolog.Logger
	device   vector.Device
	stemmer  feature.Stemmer
	pipeline PipelineFactory
}

// EngineOption Engine 选项
type EngineOption func(*engineOptions)

// WithLogger 设置 logger
func WithLogger(l zerolog.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = l }
}

// WithDevice 指定索引构建/加载使用的加速设备
func WithDevice(d vector.Device) EngineOption {
	return func(o *engineOptions) { o.device = d }
}

// WithStemmer 替换默认词干器
func WithStemmer(s feature.Stemmer) EngineOption {
	return func(o *engineOptions) { o.stemmer = s }
}

// WithPipeline 使用自定义查询 Pipeline（例如从 YAML 构建）
func WithPipeline(f PipelineFactory) EngineOption {
	return func(o *engineOptions) { o.pipeline = f }
}

// Engine 持有一次构建（或加载）的全部状态：变换、索引、映射、元数据目录与查询链。
type Engine struct {
	opts         Options
	transformers *embed.Transformers
	manager      *vector.Manager
	index        *vector.IVFFlat
	reference    []catalog.Entry
	catalog      *catalog.Catalog
	ictx         *IndexContext
	recommender  *Recommender
	logger       zerolog.Logger
}

func resolveOptions(eopts []EngineOption) engineOptions {
	o := engineOptions{logger: zerolog.Nop()}
	for _, opt := range eopts {
		opt(&o)
	}
	return o
}

func (o engineOptions) managerOptions() []vector.ManagerOption {
	mopts := []vector.ManagerOption{vector.WithManagerLogger(o.logger.With().Str("component", "index").Logger())}
	if o.device != nil {
		mopts = append(mopts, vector.WithManagerDevice(o.device))
	}
	return mopts
}

func (o engineOptions) embedOptions() []embed.Option {
	eopts := []embed.Option{embed.WithLogger(o.logger.With().Str("component", "embed").Logger())}
	if o.stemmer != nil {
		eopts = append(eopts, embed.WithStemmer(o.stemmer))
	}
	return eopts
}

// Build 拟合向量空间、构建索引、写入元数据目录并组装查询链。
func Build(ctx context.Context, recs []core.Record, opts Options, cat *catalog.Catalog, eopts ...EngineOption) (*Engine, error) {
	o := resolveOptions(eopts)
	if err := checkUniqueIDs(recs); err != nil {
		return nil, err
	}

	t, emb, err := embed.Fit(ctx, recs, opts.Embed, o.embedOptions()...)
	if err != nil {
		return nil, fmt.Errorf("fit transformers: %w", err)
	}

	vectors := make([][]float32, 0, emb.Len())
	for i, v := range emb.Vectors {
		if !emb.Degenerate[i] {
			vectors = append(vectors, v)
		}
	}
	if len(vectors) == 0 {
		return nil, ErrNothingToIndex
	}
	if n := emb.DegenerateCount(); n > 0 {
		o.logger.Warn().Int("degenerate", n).Msg("items without usable metadata are not indexed")
	}

	mgr := vector.NewManager(opts.Index, o.managerOptions()...)
	ix, err := mgr.Build(ctx, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	display := limitGenres(recs, opts.Embed.ListLimits)
	entries := catalog.BuildReference(display, emb.Degenerate)
	start := time.Now()
	if err := cat.PutRecords(ctx, display); err != nil {
		return nil, fmt.Errorf("write catalog: %w", err)
	}
	metrics.RecordBuildPhase("catalog", time.Since(start))

	return assemble(opts, o, t, mgr, ix, entries, cat)
}

// Open 从 dir 加载全部工件。加速设备可用且配置开启时，索引在加载后迁移到设备。
func Open(ctx context.Context, dir string, opts Options, cat *catalog.Catalog, eopts ...EngineOption) (*Engine, error) {
	o := resolveOptions(eopts)

	t, err := embed.Load(dir, o.embedOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load transformers: %w", err)
	}
	mgr := vector.NewManager(opts.Index, o.managerOptions()...)
	ix, err := mgr.Load(filepath.Join(dir, IndexFile), opts.Index.Accelerated)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	entries, err := catalog.ReadReference(filepath.Join(dir, catalog.ReferenceFile))
	if err != nil {
		return nil, err
	}

	metas := make([]core.Metadata, len(entries))
	for i, e := range entries {
		metas[i] = e.Metadata()
	}
	if err := cat.Put(ctx, metas); err != nil {
		return nil, fmt.Errorf("write catalog: %w", err)
	}
	return assemble(opts, o, t, mgr, ix, entries, cat)
}

func assemble(opts Options, o engineOptions, t *embed.Transformers, mgr *vector.Manager, ix *vector.IVFFlat, entries []catalog.Entry, cat *catalog.Catalog) (*Engine, error) {
	qlog := o.logger.With().Str("component", "query").Logger()
	ic, err := NewIndexContext(ix, entries, opts.Query.NProbe, qlog)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Dependencies{Similarity: ic, Metadata: cat, Logger: qlog}
	factory := o.pipeline
	if factory == nil {
		factory = func(deps pipeline.Dependencies) (*pipeline.Pipeline, error) {
			return DefaultPipeline(deps, opts.Query)
		}
	}
	p, err := factory(deps)
	if err != nil {
		return nil, fmt.Errorf("build query pipeline: %w", err)
	}

	e := &Engine{
		opts:         opts,
		transformers: t,
		manager:      mgr,
		index:        ix,
		reference:    entries,
		catalog:      cat,
		ictx:         ic,
		recommender:  NewRecommender(ic, p, qlog),
		logger:       o.logger,
	}
	o.logger.Info().
		Str("backend", ix.Backend()).
		Int64("indexed", ix.Ntotal()).
		Int("items", len(entries)).
		Str("catalog", cat.Store().Name()).
		Msg("engine ready")
	return e, nil
}

// Save 将变换、索引与参照表写入 dir。
func (e *Engine) Save(dir string) error {
	if err := e.transformers.Save(dir); err != nil {
		return err
	}
	if err := e.manager.Save(e.index, filepath.Join(dir, IndexFile)); err != nil {
		return err
	}
	return catalog.WriteReference(filepath.Join(dir, catalog.ReferenceFile), e.reference)
}

// Recommend 见 Recommender.Recommend
func (e *Engine) Recommend(ctx context.Context, itemID int64, topN int, opts ...RecommendOption) (*Result, error) {
	return e.recommender.Recommend(ctx, itemID, topN, opts...)
}

// Transformers 返回拟合好的变换
func (e *Engine) Transformers() *embed.Transformers { return e.transformers }

// Index 返回 ANN 索引
func (e *Engine) Index() *vector.IVFFlat { return e.index }

// IndexContext 返回 ID↔行号映射
func (e *Engine) IndexContext() *IndexContext { return e.ictx }

// Reference 返回行号参照表
func (e *Engine) Reference() []catalog.Entry { return e.reference }

// limitGenres 返回类型列表按构建时的上限截断后的记录副本，参照表与目录展示截断后的类型。
func limitGenres(recs []core.Record, limits map[string]int) []core.Record {
	if limits == nil {
		limits = feature.DefaultListLimits
	}
	out := make([]core.Record, len(recs))
	for i, r := range recs {
		r.Genres = feature.LimitList(r.Genres, limits[feature.FieldGenres])
		out[i] = r
	}
	return out
}

func checkUniqueIDs(recs []core.Record) error {
	seen := make(map[int64]struct{}, len(recs))
	for _, r := range recs {
		if _, dup := seen[r.MovieID]; dup {
			return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
				fmt.Sprintf("service: duplicate movie_id %d", r.MovieID))
		}
		seen[r.MovieID] = struct{}{}
	}
	return nil
}
