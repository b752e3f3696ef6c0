package vector

import (
	"context"
	"sync"

	"github.com/rushteam/simrec/core"
)

// FlatL2 是精确暴力检索索引，同时充当 IVF 的粗量化器。
//
// 无需训练：创建后即处于 trained 状态。线程安全。
type FlatL2 struct {
	mu     sync.RWMutex
	dim    int
	data   []float32 // ntotal × dim
	ntotal int64
	state  State
	device Device
}

var _ Index = (*FlatL2)(nil)

// NewFlatL2 创建精确索引；device 为 nil 时顺序执行。
func NewFlatL2(dim int, device Device) *FlatL2 {
	return &FlatL2{dim: dim, state: StateTrained, device: device}
}

func (f *FlatL2) Backend() string {
	if f.device != nil {
		return "flat-" + f.device.Name()
	}
	return "flat-cpu"
}

func (f *FlatL2) Dim() int { return f.dim }

func (f *FlatL2) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

func (f *FlatL2) Ntotal() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ntotal
}

// Train 对精确索引无操作，只校验维度。
func (f *FlatL2) Train(_ context.Context, vectors [][]float32) error {
	return checkDims(f.dim, vectors)
}

func (f *FlatL2) Add(_ context.Context, vectors [][]float32) error {
	if err := checkDims(f.dim, vectors); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.ntotal += int64(len(vectors))
	if f.ntotal > 0 {
		f.state = StatePopulated
	}
	return nil
}

func (f *FlatL2) Search(ctx context.Context, query []float32, k int, _ ...core.SearchOption) ([]Result, error) {
	if len(query) != f.dim {
		return nil, errDimensionMismatch(f.dim, len(query))
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.state.Searchable() {
		return nil, ErrIndexNotReady
	}
	return f.scan(ctx, query, k)
}

// scan 调用方需持有读锁。
func (f *FlatL2) scan(ctx context.Context, query []float32, k int) ([]Result, error) {
	n := int(f.ntotal)
	if k <= 0 || n == 0 {
		return nil, nil
	}
	if f.device == nil {
		t := newTopK(k)
		if err := serialFor(ctx, n, func(lo, hi int) error {
			f.scanRange(query, lo, hi, t)
			return nil
		}); err != nil {
			return nil, err
		}
		return t.sorted(), nil
	}

	var mu sync.Mutex
	var parts [][]Result
	err := f.device.ParallelFor(ctx, n, func(lo, hi int) error {
		t := newTopK(k)
		f.scanRange(query, lo, hi, t)
		mu.Lock()
		parts = append(parts, t.sorted())
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mergeTopK(k, parts...), nil
}

func (f *FlatL2) scanRange(query []float32, lo, hi int, t *topK) {
	for i := lo; i < hi; i++ {
		v := f.data[i*f.dim : (i+1)*f.dim]
		t.push(Result{Row: int64(i), Distance: L2Sqr(query, v)})
	}
}

// nearest 返回距离最近的行号（距离相同取最小行号），调用方需持有读锁或保证只读。
func (f *FlatL2) nearest(v []float32) (int, float32) {
	best, bestDist := -1, float32(0)
	for i := 0; i < int(f.ntotal); i++ {
		d := L2Sqr(v, f.data[i*f.dim:(i+1)*f.dim])
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func (f *FlatL2) Reconstruct(row int64) ([]float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if row < 0 || row >= f.ntotal {
		return nil, errRowOutOfRange(row, f.ntotal)
	}
	out := make([]float32, f.dim)
	copy(out, f.data[row*int64(f.dim):(row+1)*int64(f.dim)])
	return out, nil
}

func checkDims(dim int, vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != dim {
			return errDimensionMismatch(dim, len(v))
		}
	}
	return nil
}
