// Package vector 实现平方 L2 度量的 ANN 索引：精确的 FlatL2、倒排的 IVFFlat，
// 以及加速设备到 CPU 的构建回退链与索引持久化。
package vector

import (
	"context"

	"github.com/rushteam/simrec/core"
)

// State 索引生命周期状态
type State int

const (
	StateUninitialized State = iota
	StateTrained
	StatePopulated
	StateSaved
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTrained:
		return "trained"
	case StatePopulated:
		return "populated"
	case StateSaved:
		return "saved"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Searchable 是否允许检索
func (s State) Searchable() bool {
	return s == StatePopulated || s == StateSaved || s == StateLoaded
}

// Result 单个检索结果：行号与平方 L2 距离
type Result struct {
	Row      int64
	Distance float32
}

// Index 是 ANN 索引的统一接口。
//
// 行号按 Add 的顺序从 0 连续分配。Search 结果按距离升序、行号升序排列。
type Index interface {
	// Backend 后端名称（用于日志/监控）
	Backend() string

	Dim() int
	State() State
	Ntotal() int64

	// Train 训练粗量化器；只能调用一次
	Train(ctx context.Context, vectors [][]float32) error

	// Add 追加向量；必须在 Train 之后
	Add(ctx context.Context, vectors [][]float32) error

	// Search 检索 k 个最近邻；nprobe 等参数通过 opts 按次传入
	Search(ctx context.Context, query []float32, k int, opts ...core.SearchOption) ([]Result, error)

	// Reconstruct 取回第 row 行存储的向量
	Reconstruct(row int64) ([]float32, error)
}

// L2Sqr 计算平方 L2 距离。
func L2Sqr(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
