package feature

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/simrec/core"
)

const (
	// DefaultSVDSeed 随机投影的默认种子
	DefaultSVDSeed = 42
	// DefaultSVDIters 默认幂迭代次数
	DefaultSVDIters = 5
	// DefaultSVDOversamples 默认过采样列数
	DefaultSVDOversamples = 10

	// 奇异值相对阈值，低于 tol*σmax 的分量视为零
	svdRankTol = 1e-10
)

// TruncatedSVD 随机化截断 SVD 降维。
//
// 输出宽度固定为 Width；只有前 NComponents 列有效，其余列补零。
// 相同种子与输入得到相同分量；分量符号按“绝对值最大元素为正”确定。
type TruncatedSVD struct {
	Width       int   `json:"width"`
	Requested   int   `json:"requested"`
	Seed        int64 `json:"seed"`
	Iters       int   `json:"iters"`
	Oversamples int   `json:"oversamples"`

	InputDim       int         `json:"input_dim"`
	NComponents    int         `json:"n_components"`
	Components     [][]float64 `json:"components"` // NComponents × InputDim
	SingularValues []float64   `json:"singular_values"`
	IsFitted       bool        `json:"fitted"`
}

// SVDOption 降维器选项
type SVDOption func(*TruncatedSVD)

// WithSeed 设置随机种子。
func WithSeed(seed int64) SVDOption {
	return func(s *TruncatedSVD) { s.Seed = seed }
}

// WithIters 设置幂迭代次数。
func WithIters(n int) SVDOption {
	return func(s *TruncatedSVD) { s.Iters = n }
}

// NewTruncatedSVD 创建降维器：期望 requested 个分量，输出宽度 width。
func NewTruncatedSVD(requested, width int, opts ...SVDOption) *TruncatedSVD {
	s := &TruncatedSVD{
		Width:       width,
		Requested:   requested,
		Seed:        DefaultSVDSeed,
		Iters:       DefaultSVDIters,
		Oversamples: DefaultSVDOversamples,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit 拟合分量。有效分量数为 min(Requested, Width, 行数, 列数)，并剔除数值秩以外的分量。
func (s *TruncatedSVD) Fit(x Operator) error {
	if s.IsFitted {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeFailedPrecondition, "svd: already fitted")
	}
	r, c := x.Dims()
	s.InputDim = c
	k := min(s.Requested, s.Width, r, c)
	if k <= 0 {
		s.NComponents = 0
		s.Components = nil
		s.IsFitted = true
		return nil
	}

	l := min(k+s.Oversamples, r, c)
	rng := rand.New(rand.NewSource(s.Seed))
	omega := mat.NewDense(c, l, nil)
	raw := omega.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}

	q := orthonormalize(x.MulDense(omega))
	for i := 0; i < s.Iters; i++ {
		z := orthonormalize(x.TMulDense(q))
		q = orthonormalize(x.MulDense(z))
	}

	// Bᵀ = Xᵀ·Q，c×l；Bᵀ 的左奇异向量即 X 的右奇异向量
	bt := x.TMulDense(q)
	var svd mat.SVD
	if ok := svd.Factorize(bt, mat.SVDThin); !ok {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInternalError, "svd: factorization failed")
	}
	values := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	sigmaMax := 0.0
	if len(values) > 0 {
		sigmaMax = values[0]
	}
	comps := make([][]float64, 0, k)
	sv := make([]float64, 0, k)
	for j := 0; j < k && j < len(values); j++ {
		if sigmaMax == 0 || values[j] <= svdRankTol*sigmaMax {
			break
		}
		comp := mat.Col(nil, j, &u)
		flipSign(comp)
		comps = append(comps, comp)
		sv = append(sv, values[j])
	}
	s.NComponents = len(comps)
	s.Components = comps
	s.SingularValues = sv
	s.IsFitted = true
	return nil
}

// Transform 投影到分量空间，输出 r×Width。
func (s *TruncatedSVD) Transform(x Operator) (*mat.Dense, error) {
	if !s.IsFitted {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeFailedPrecondition, "svd: not fitted")
	}
	r, c := x.Dims()
	if c != s.InputDim {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("svd: input has %d columns, fitted on %d", c, s.InputDim))
	}
	if s.Width <= 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "svd: width must be positive")
	}
	if r == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "svd: empty input")
	}
	out := mat.NewDense(r, s.Width, nil)
	if s.NComponents == 0 {
		return out, nil
	}
	vk := mat.NewDense(c, s.NComponents, nil)
	for j, comp := range s.Components {
		vk.SetCol(j, comp)
	}
	proj := x.MulDense(vk)
	out.Slice(0, r, 0, s.NComponents).(*mat.Dense).Copy(proj)
	return out, nil
}

// FitTransform 拟合并投影。
func (s *TruncatedSVD) FitTransform(x Operator) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// orthonormalize 对 a 的列做两轮修正 Gram-Schmidt，线性相关列置零。
func orthonormalize(a *mat.Dense) *mat.Dense {
	cols := mat.DenseCopyOf(a.T())
	n, _ := cols.Dims()
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < n; i++ {
			vi := cols.RawRowView(i)
			before := floats.Norm(vi, 2)
			for j := 0; j < i; j++ {
				vj := cols.RawRowView(j)
				floats.AddScaled(vi, -floats.Dot(vi, vj), vj)
			}
			norm := floats.Norm(vi, 2)
			if norm == 0 || norm <= 1e-10*before {
				for p := range vi {
					vi[p] = 0
				}
				continue
			}
			floats.Scale(1/norm, vi)
		}
	}
	return mat.DenseCopyOf(cols.T())
}

// flipSign 使绝对值最大的元素为正。
func flipSign(v []float64) {
	idx, best := 0, -1.0
	for i, x := range v {
		if a := math.Abs(x); a > best {
			idx, best = i, a
		}
	}
	if len(v) > 0 && v[idx] < 0 {
		floats.Scale(-1, v)
	}
}
