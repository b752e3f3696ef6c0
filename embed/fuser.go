package embed

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/simrec/feature"
)

// Embeddings 融合后的 float32 单位向量；Degenerate[i] 表示第 i 行没有任何信号（全零）。
type Embeddings struct {
	Dim        int
	Vectors    [][]float32
	Degenerate []bool
}

// Len 行数
func (e *Embeddings) Len() int { return len(e.Vectors) }

// DegenerateCount 全零行数
func (e *Embeddings) DegenerateCount() int {
	n := 0
	for _, d := range e.Degenerate {
		if d {
			n++
		}
	}
	return n
}

// Fuser 拼接文本块与类目编码，联合降维到 Dim 后做 L2 归一化。
type Fuser struct {
	Dim     int
	Reducer *feature.TruncatedSVD
}

// NewFuser 创建融合器
func NewFuser(dim int, seed int64, iters int) *Fuser {
	return &Fuser{
		Dim:     dim,
		Reducer: feature.NewTruncatedSVD(dim, dim, feature.WithSeed(seed), feature.WithIters(iters)),
	}
}

// FitTransform 拟合联合降维并输出融合向量。
func (f *Fuser) FitTransform(blocks []*mat.Dense, categorical *mat.Dense) (*Embeddings, error) {
	return f.fuse(blocks, categorical, true)
}

// Transform 使用已拟合的降维器输出融合向量。
func (f *Fuser) Transform(blocks []*mat.Dense, categorical *mat.Dense) (*Embeddings, error) {
	return f.fuse(blocks, categorical, false)
}

func (f *Fuser) fuse(blocks []*mat.Dense, categorical *mat.Dense, fit bool) (*Embeddings, error) {
	all := append(append([]*mat.Dense(nil), blocks...), categorical)
	combined := feature.ConcatColumns(all...)
	if combined == nil {
		return nil, invalid("embed: nothing to fuse")
	}
	op := feature.DenseOperator{Dense: combined}
	if fit {
		if err := f.Reducer.Fit(op); err != nil {
			return nil, fmt.Errorf("fit joint reducer: %w", err)
		}
	}
	reduced, err := f.Reducer.Transform(op)
	if err != nil {
		return nil, fmt.Errorf("joint reduce: %w", err)
	}

	zero := feature.NormalizeRows(reduced)
	r, _ := reduced.Dims()
	out := &Embeddings{
		Dim:        f.Dim,
		Vectors:    feature.ToFloat32(reduced),
		Degenerate: make([]bool, r),
	}
	for _, i := range zero {
		out.Degenerate[i] = true
	}
	return out, nil
}
