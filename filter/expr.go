package filter

import (
	"context"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤：表达式为 true 的候选保留，其余剔除。
// Invert 为 true 时反过来，剔除表达式为 true 的候选。
//
// 示例：`"Drama" in item.genres`、`item.score >= 0.3`。
// 依赖元数据的表达式需要放在 catalog.EnrichNode 之后。
type ExprFilter struct {
	prg    *dsl.Program
	Invert bool
}

// NewExprFilter 编译表达式。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg, Invert: invert}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回表达式原文
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	ok, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return ok == f.Invert, nil
}
