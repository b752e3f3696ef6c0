// Package dsl 提供基于 CEL 的候选过滤表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/feature"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.5 / item.distance < 0.8
//   - 类型："Drama" in item.genres
//   - 标题：item.title.startsWith("Star")
//   - 标签：label.recall_source == "similar"
//   - 请求：item.id != rctx.item_id / rctx.params.nprobe > 8
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；结果类型必须是 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return bool, got %s", out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(BuildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，用 label.key != null 判断存在性
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// BuildInput 构建 CEL 表达式的输入数据
func BuildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	genres := feature.SplitList(item.MetaString("genres"))
	if genres == nil {
		genres = []string{}
	}
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	in := map[string]interface{}{
		"item": map[string]interface{}{
			"id":       item.ID,
			"row":      item.Row,
			"score":    item.Score,
			"distance": item.Distance,
			"title":    item.MetaString("title"),
			"genres":   genres,
			"meta":     meta,
		},
		"label": labels,
		"rctx":  map[string]interface{}{},
	}
	if rctx != nil {
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		in["rctx"] = map[string]interface{}{
			"item_id": rctx.ItemID,
			"top_n":   rctx.TopN,
			"params":  params,
		}
	}
	return in
}
