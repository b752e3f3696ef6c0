package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/feature"
	"github.com/rushteam/simrec/pkg/metrics"
)

// Transformers 拟合后的全部变换：文本模型、类目编码、联合降维。
// 拟合一次后只读，可并发调用 Transform。
type Transformers struct {
	Config      Config
	Text        *TextEmbedder
	Categorical *feature.CategoricalEncoder
	Fuser       *Fuser

	normalizer *feature.TextNormalizer
	logger     zerolog.Logger
}

// Option Transformers 选项
type Option func(*Transformers)

// WithStemmer 替换默认的 Snowball 词干器。
func WithStemmer(s feature.Stemmer) Option {
	return func(t *Transformers) { t.normalizer = feature.NewTextNormalizer(s) }
}

// WithLogger 设置 logger。
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transformers) { t.logger = l }
}

func newTransformers(cfg Config, opts ...Option) *Transformers {
	t := &Transformers{
		Config:     cfg,
		normalizer: feature.NewTextNormalizer(nil),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit 在全部记录上拟合变换，并返回训练语料的融合向量。
func Fit(ctx context.Context, recs []core.Record, cfg Config, opts ...Option) (*Transformers, *Embeddings, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(recs) == 0 {
		return nil, nil, invalid("embed: no records")
	}
	t := newTransformers(cfg, opts...)

	start := time.Now()
	norm := feature.NormalizeRecords(recs, cfg.ListLimits, t.normalizer)
	metrics.RecordBuildPhase("normalize", time.Since(start))

	start = time.Now()
	t.Text = NewTextEmbedder(cfg, t.logger)
	blocks, err := t.Text.FitTransform(ctx, norm)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordBuildPhase("text", time.Since(start))

	t.Categorical = feature.NewCategoricalEncoder()
	if err := t.Categorical.Fit(norm); err != nil {
		return nil, nil, fmt.Errorf("fit categorical encoder: %w", err)
	}
	cats := t.Categorical.Transform(norm)

	start = time.Now()
	t.Fuser = NewFuser(cfg.FinalDim, cfg.Seed, cfg.SVDIters)
	emb, err := t.Fuser.FitTransform(blocks, cats)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordBuildPhase("fuse", time.Since(start))

	t.logger.Info().
		Int("items", emb.Len()).
		Int("dim", emb.Dim).
		Int("categorical_width", t.Categorical.Width()).
		Int("joint_components", t.Fuser.Reducer.NComponents).
		Int("degenerate", emb.DegenerateCount()).
		Msg("embeddings fitted")
	return t, emb, nil
}

// Transform 将记录映射到已拟合的向量空间。
func (t *Transformers) Transform(ctx context.Context, recs []core.Record) (*Embeddings, error) {
	if len(recs) == 0 {
		return nil, invalid("embed: no records")
	}
	norm := feature.NormalizeRecords(recs, t.Config.ListLimits, t.normalizer)
	blocks, err := t.Text.Transform(ctx, norm)
	if err != nil {
		return nil, err
	}
	return t.Fuser.Transform(blocks, t.Categorical.Transform(norm))
}
