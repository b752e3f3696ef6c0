package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Operator 是降维所需的最小矩阵运算集合，稀疏与稠密矩阵均实现它。
type Operator interface {
	Dims() (r, c int)
	// MulDense 计算 X·B，B 为 c×k
	MulDense(b *mat.Dense) *mat.Dense
	// TMulDense 计算 Xᵀ·B，B 为 r×k
	TMulDense(b *mat.Dense) *mat.Dense
}

// CSR 行压缩稀疏矩阵。
type CSR struct {
	Rows    int
	Cols    int
	Indptr  []int
	Indices []int
	Data    []float64
}

var _ Operator = (*CSR)(nil)

// NewCSR 创建空的 rows×cols 稀疏矩阵构造器，通过 AppendRow 逐行填充。
func NewCSR(cols int) *CSR {
	return &CSR{Cols: cols, Indptr: []int{0}}
}

// AppendRow 追加一行；indices 须升序。
func (m *CSR) AppendRow(indices []int, values []float64) {
	m.Indices = append(m.Indices, indices...)
	m.Data = append(m.Data, values...)
	m.Indptr = append(m.Indptr, len(m.Indices))
	m.Rows++
}

func (m *CSR) Dims() (int, int) { return m.Rows, m.Cols }

// Row 返回第 i 行的列号与值（共享底层存储）。
func (m *CSR) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// NNZ 非零元个数
func (m *CSR) NNZ() int { return len(m.Data) }

// Scale 原地乘以常数。
func (m *CSR) Scale(w float64) {
	floats.Scale(w, m.Data)
}

// MulDense 计算 X·B；与 gonum 一致，零维矩阵会 panic，调用方负责保证维度非零。
func (m *CSR) MulDense(b *mat.Dense) *mat.Dense {
	_, k := b.Dims()
	out := mat.NewDense(m.Rows, k, nil)
	for i := 0; i < m.Rows; i++ {
		dst := out.RawRowView(i)
		cols, vals := m.Row(i)
		for p, j := range cols {
			floats.AddScaled(dst, vals[p], b.RawRowView(j))
		}
	}
	return out
}

// TMulDense 计算 Xᵀ·B。
func (m *CSR) TMulDense(b *mat.Dense) *mat.Dense {
	_, k := b.Dims()
	out := mat.NewDense(m.Cols, k, nil)
	for i := 0; i < m.Rows; i++ {
		src := b.RawRowView(i)
		cols, vals := m.Row(i)
		for p, j := range cols {
			floats.AddScaled(out.RawRowView(j), vals[p], src)
		}
	}
	return out
}

// DenseOperator 将 *mat.Dense 适配为 Operator。
type DenseOperator struct {
	*mat.Dense
}

var _ Operator = DenseOperator{}

func (d DenseOperator) MulDense(b *mat.Dense) *mat.Dense {
	r, _ := d.Dims()
	_, k := b.Dims()
	out := mat.NewDense(r, k, nil)
	out.Mul(d.Dense, b)
	return out
}

func (d DenseOperator) TMulDense(b *mat.Dense) *mat.Dense {
	_, c := d.Dims()
	_, k := b.Dims()
	out := mat.NewDense(c, k, nil)
	out.Mul(d.Dense.T(), b)
	return out
}
