package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ZeroNormEpsilon 低于该范数的行视为无信号
const ZeroNormEpsilon = 1e-12

// NormalizeRows 原地对每行做 L2 归一化，零行保持为零；返回零行的行号。
func NormalizeRows(m *mat.Dense) []int {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	var zero []int
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		norm := floats.Norm(row, 2)
		if norm < ZeroNormEpsilon {
			for j := range row {
				row[j] = 0
			}
			zero = append(zero, i)
			continue
		}
		floats.Scale(1/norm, row)
	}
	return zero
}

// ConcatColumns 按列拼接若干等行数矩阵，nil 块被跳过。
func ConcatColumns(blocks ...*mat.Dense) *mat.Dense {
	rows, cols := 0, 0
	for _, b := range blocks {
		if b == nil {
			continue
		}
		r, c := b.Dims()
		rows = r
		cols += c
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	out := mat.NewDense(rows, cols, nil)
	offset := 0
	for _, b := range blocks {
		if b == nil {
			continue
		}
		_, c := b.Dims()
		out.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(b)
		offset += c
	}
	return out
}

// ToFloat32 将矩阵逐行转换为 float32 向量。
func ToFloat32(m *mat.Dense) [][]float32 {
	r, c := m.Dims()
	out := make([][]float32, r)
	buf := make([]float32, r*c)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		dst := buf[i*c : (i+1)*c : (i+1)*c]
		for j, v := range row {
			dst[j] = float32(v)
		}
		out[i] = dst
	}
	return out
}
