package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pkg/metrics"
)

// Strategy 是一种索引构建方式；Build 返回已训练的索引。
type Strategy struct {
	Name  string
	Build func(ctx context.Context) (*IVFFlat, error)
}

// FirstSuccess 依次尝试各策略，返回第一个成功的结果。
// 每次失败都会记录日志；全部失败时返回 ErrNoIndexBackend 并附带各策略的错误。
func FirstSuccess(ctx context.Context, logger zerolog.Logger, strategies ...Strategy) (*IVFFlat, string, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		ix, err := s.Build(ctx)
		metrics.RecordBackendAttempt(s.Name, err)
		if err == nil {
			logger.Info().Str("strategy", s.Name).Str("backend", ix.Backend()).Msg("index backend selected")
			return ix, s.Name, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, "", err
		}
		if core.IsUnavailable(err) {
			logger.Info().Err(err).Str("strategy", s.Name).Msg("index backend unavailable, falling back")
		} else {
			logger.Warn().Err(err).Str("strategy", s.Name).Msg("index strategy failed, falling back")
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return nil, "", fmt.Errorf("%w: %w", ErrNoIndexBackend, errors.Join(errs...))
}
