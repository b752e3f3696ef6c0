package embed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/simrec/feature"
)

// TextEmbedder 逐字段的加权 TF-IDF + 截断 SVD。
//
// 每个字段独立处理：稀疏矩阵只存活于该字段的处理步骤内，
// 进入下一字段前即被释放。拟合后的向量化器与降维器保留用于 Transform。
type TextEmbedder struct {
	cfg         Config
	Vectorizers map[string]*feature.TFIDFVectorizer
	Reducers    map[string]*feature.TruncatedSVD
	logger      zerolog.Logger
}

// NewTextEmbedder 创建未拟合的文本向量化器。
func NewTextEmbedder(cfg Config, logger zerolog.Logger) *TextEmbedder {
	return &TextEmbedder{
		cfg:         cfg,
		Vectorizers: make(map[string]*feature.TFIDFVectorizer, len(cfg.Fields)),
		Reducers:    make(map[string]*feature.TruncatedSVD, len(cfg.Fields)),
		logger:      logger,
	}
}

// FitTransform 按 cfg.Fields 顺序拟合并返回各字段块（n×MaxComponents）。
func (e *TextEmbedder) FitTransform(ctx context.Context, recs []feature.NormalizedRecord) ([]*mat.Dense, error) {
	return e.run(ctx, recs, true)
}

// Transform 使用已拟合的模型返回各字段块。
func (e *TextEmbedder) Transform(ctx context.Context, recs []feature.NormalizedRecord) ([]*mat.Dense, error) {
	return e.run(ctx, recs, false)
}

func (e *TextEmbedder) run(ctx context.Context, recs []feature.NormalizedRecord, fit bool) ([]*mat.Dense, error) {
	blocks := make([]*mat.Dense, 0, len(e.cfg.Fields))
	for _, field := range e.cfg.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block, err := e.embedField(field, feature.Column(recs, field), fit)
		if err != nil {
			return nil, fmt.Errorf("embed field %s: %w", field, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (e *TextEmbedder) embedField(field string, docs []string, fit bool) (*mat.Dense, error) {
	vec, red := e.Vectorizers[field], e.Reducers[field]
	if fit {
		vec = feature.NewTFIDFVectorizer(e.cfg.MaxFeatures)
		if err := vec.Fit(docs); err != nil {
			return nil, err
		}
		red = feature.NewTruncatedSVD(vec.VocabSize()/2, e.cfg.MaxComponents,
			feature.WithSeed(e.cfg.Seed), feature.WithIters(e.cfg.SVDIters))
	} else if vec == nil || red == nil {
		return nil, invalid(fmt.Sprintf("embed: field %s has no fitted model", field))
	}

	tfidf, err := vec.Transform(docs)
	if err != nil {
		return nil, err
	}
	tfidf.Scale(e.cfg.Weight(field))

	if fit {
		if err := red.Fit(tfidf); err != nil {
			return nil, err
		}
	}
	block, err := red.Transform(tfidf)
	if err != nil {
		return nil, err
	}
	zero := feature.NormalizeRows(block)

	if fit {
		e.Vectorizers[field] = vec
		e.Reducers[field] = red
		e.logger.Info().
			Str("field", field).
			Int("vocab", vec.VocabSize()).
			Int("nnz", tfidf.NNZ()).
			Int("components", red.NComponents).
			Int("empty_rows", len(zero)).
			Msg("text field embedded")
	}
	return block, nil
}
