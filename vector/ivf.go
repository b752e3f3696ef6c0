package vector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pkg/metrics"
)

// IVFOptions 倒排索引参数
type IVFOptions struct {
	NList       int   // 倒排桶数量
	NProbe      int   // 默认探测桶数量，可在每次检索时覆盖
	Indices32   bool  // 以 32 位存储行号
	KMeansIters int   // k-means 迭代次数
	TrainSample int   // 训练样本上限；<= 0 表示使用全部向量
	Seed        int64 // k-means 与抽样种子
}

// IVFOption 倒排索引选项
type IVFOption func(*IVFFlat)

// WithDevice 在加速设备上构建。
func WithDevice(d Device) IVFOption {
	return func(ix *IVFFlat) { ix.device = d }
}

// WithIndexLogger 设置 logger。
func WithIndexLogger(l zerolog.Logger) IVFOption {
	return func(ix *IVFFlat) { ix.logger = l }
}

type invList struct {
	ids32 []int32
	ids64 []int64
	codes []float32
}

func (l *invList) size() int {
	if l.ids32 != nil {
		return len(l.ids32)
	}
	return len(l.ids64)
}

func (l *invList) id(i int) int64 {
	if l.ids32 != nil {
		return int64(l.ids32[i])
	}
	return l.ids64[i]
}

type listPos struct {
	list   int
	offset int
}

// IVFFlat 是倒排文件 + 原始向量存储的 ANN 索引（平方 L2）。
//
// 生命周期：uninitialized → trained → populated → saved | loaded。
// Add 持写锁，Search 持读锁；nprobe 是单次检索参数，不修改索引状态。
type IVFFlat struct {
	mu        sync.RWMutex
	dim       int
	opts      IVFOptions
	state     State
	quantizer *FlatL2
	lists     []invList
	dmap      []listPos
	ntotal    int64
	device    Device
	logger    zerolog.Logger
}

var _ Index = (*IVFFlat)(nil)

// NewIVFFlat 创建未训练的倒排索引。
func NewIVFFlat(dim int, opts IVFOptions, options ...IVFOption) *IVFFlat {
	if opts.NList <= 0 {
		opts.NList = 1
	}
	if opts.NProbe <= 0 {
		opts.NProbe = 1
	}
	if opts.KMeansIters <= 0 {
		opts.KMeansIters = DefaultKMeansIters
	}
	ix := &IVFFlat{dim: dim, opts: opts, logger: zerolog.Nop()}
	for _, o := range options {
		o(ix)
	}
	return ix
}

func (ix *IVFFlat) Backend() string {
	if ix.device != nil {
		return "ivf-flat-" + ix.device.Name()
	}
	return "ivf-flat-cpu"
}

func (ix *IVFFlat) Dim() int { return ix.dim }

func (ix *IVFFlat) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

func (ix *IVFFlat) Ntotal() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ntotal
}

// NList 实际倒排桶数量（训练后可能因样本不足而被下调）
func (ix *IVFFlat) NList() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.opts.NList
}

// DefaultNProbe 默认探测桶数量
func (ix *IVFFlat) DefaultNProbe() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.opts.NProbe
}

// Indices32 是否以 32 位存储行号
func (ix *IVFFlat) Indices32() bool { return ix.opts.Indices32 }

// Accelerated 是否运行在加速设备上
func (ix *IVFFlat) Accelerated() bool { return ix.device != nil }

// Device 返回加速设备，CPU 索引返回 nil
func (ix *IVFFlat) Device() Device { return ix.device }

func (ix *IVFFlat) forEach(ctx context.Context, n int, fn func(lo, hi int) error) error {
	if ix.device != nil {
		return ix.device.ParallelFor(ctx, n, fn)
	}
	return serialFor(ctx, n, fn)
}

func (ix *IVFFlat) reserve(vectors int) error {
	if ix.device == nil {
		return nil
	}
	return ix.device.Reserve(int64(vectors) * int64(ix.dim) * 4)
}

// Train 以 k-means 训练粗量化中心。训练集少于 NList 时将 NList 下调到训练集大小。
func (ix *IVFFlat) Train(ctx context.Context, vectors [][]float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.state != StateUninitialized {
		return ErrIndexAlreadyTrained
	}
	if len(vectors) == 0 {
		return ErrEmptyTrainingSet
	}
	if err := checkDims(ix.dim, vectors); err != nil {
		return err
	}
	if ix.device != nil {
		if err := ix.device.Available(); err != nil {
			return err
		}
	}

	if len(vectors) < ix.opts.NList {
		ix.logger.Warn().
			Int("requested", ix.opts.NList).
			Int("vectors", len(vectors)).
			Msg("nlist exceeds training set size, clamping")
		ix.opts.NList = len(vectors)
	}
	ix.opts.NProbe = min(ix.opts.NProbe, ix.opts.NList)

	sample := sampleTraining(vectors, ix.opts.TrainSample, ix.opts.Seed)
	if err := ix.reserve(len(sample)); err != nil {
		return err
	}

	start := time.Now()
	km := &kmeans{dim: ix.dim, k: ix.opts.NList, iters: ix.opts.KMeansIters, seed: ix.opts.Seed, run: ix.forEach}
	centroids, err := km.train(ctx, sample)
	if err != nil {
		return fmt.Errorf("train coarse quantizer: %w", err)
	}

	q := NewFlatL2(ix.dim, ix.device)
	rows := make([][]float32, ix.opts.NList)
	for c := range rows {
		rows[c] = centroids[c*ix.dim : (c+1)*ix.dim]
	}
	if err := q.Add(ctx, rows); err != nil {
		return err
	}
	ix.quantizer = q
	ix.lists = make([]invList, ix.opts.NList)
	for i := range ix.lists {
		if ix.opts.Indices32 {
			ix.lists[i].ids32 = []int32{}
		}
	}
	ix.state = StateTrained
	ix.logger.Info().
		Str("backend", ix.Backend()).
		Int("nlist", ix.opts.NList).
		Int("sample", len(sample)).
		Dur("took", time.Since(start)).
		Msg("index trained")
	return nil
}

// Add 将向量追加到最近中心的倒排桶，行号按调用顺序连续分配。
func (ix *IVFFlat) Add(ctx context.Context, vectors [][]float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	switch ix.state {
	case StateTrained, StatePopulated:
	case StateUninitialized:
		return ErrIndexNotTrained
	default:
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeFailedPrecondition,
			fmt.Sprintf("index: cannot add in state %s", ix.state))
	}
	if err := checkDims(ix.dim, vectors); err != nil {
		return err
	}
	if ix.opts.Indices32 && ix.ntotal+int64(len(vectors)) > math.MaxInt32 {
		return ErrIDOverflow
	}
	if err := ix.reserve(len(vectors)); err != nil {
		return err
	}

	labels := make([]int, len(vectors))
	if err := ix.forEach(ctx, len(vectors), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			labels[i], _ = ix.quantizer.nearest(vectors[i])
		}
		return nil
	}); err != nil {
		return err
	}

	for i, v := range vectors {
		row := ix.ntotal + int64(i)
		l := &ix.lists[labels[i]]
		ix.dmap = append(ix.dmap, listPos{list: labels[i], offset: l.size()})
		if ix.opts.Indices32 {
			l.ids32 = append(l.ids32, int32(row))
		} else {
			l.ids64 = append(l.ids64, row)
		}
		l.codes = append(l.codes, v...)
	}
	ix.ntotal += int64(len(vectors))
	if ix.ntotal > 0 {
		ix.state = StatePopulated
	}
	return nil
}

// Search 探测最近的 nprobe 个桶并返回 k 个最近邻。
func (ix *IVFFlat) Search(ctx context.Context, query []float32, k int, opts ...core.SearchOption) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, errDimensionMismatch(ix.dim, len(query))
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.state.Searchable() {
		return nil, ErrIndexNotReady
	}
	if k <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordSearch(ix.Backend(), time.Since(start)) }()

	params := core.ApplySearchOptions(ix.opts.NProbe, opts...)
	nprobe := min(max(params.NProbe, 1), ix.opts.NList)

	probes, err := ix.quantizer.scan(ctx, query, nprobe)
	if err != nil {
		return nil, err
	}

	if ix.device == nil {
		t := newTopK(k)
		for _, p := range probes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ix.scanList(query, int(p.Row), t)
		}
		return t.sorted(), nil
	}

	parts := make([][]Result, len(probes))
	err = ix.device.ParallelFor(ctx, len(probes), func(lo, hi int) error {
		t := newTopK(k)
		for i := lo; i < hi; i++ {
			ix.scanList(query, int(probes[i].Row), t)
		}
		parts[lo] = t.sorted()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mergeTopK(k, parts...), nil
}

func (ix *IVFFlat) scanList(query []float32, list int, t *topK) {
	l := &ix.lists[list]
	for i, n := 0, l.size(); i < n; i++ {
		t.push(Result{Row: l.id(i), Distance: L2Sqr(query, l.codes[i*ix.dim:(i+1)*ix.dim])})
	}
}

// Reconstruct 通过行号直达映射取回原始向量。
func (ix *IVFFlat) Reconstruct(row int64) ([]float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if row < 0 || row >= ix.ntotal {
		return nil, errRowOutOfRange(row, ix.ntotal)
	}
	pos := ix.dmap[row]
	codes := ix.lists[pos.list].codes
	out := make([]float32, ix.dim)
	copy(out, codes[pos.offset*ix.dim:(pos.offset+1)*ix.dim])
	return out, nil
}

// ToCPU 返回共享数据、脱离设备的副本。
func (ix *IVFFlat) ToCPU() *IVFFlat {
	return ix.withDevice(nil)
}

// ToDevice 返回迁移到设备上的副本；设备不可用或内存预算不足时返回错误。
func (ix *IVFFlat) ToDevice(d Device) (*IVFFlat, error) {
	if err := d.Available(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	n := ix.ntotal
	ix.mu.RUnlock()
	if err := d.Reserve(n * int64(ix.dim) * 4); err != nil {
		return nil, err
	}
	return ix.withDevice(d), nil
}

func (ix *IVFFlat) withDevice(d Device) *IVFFlat {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := &IVFFlat{
		dim:    ix.dim,
		opts:   ix.opts,
		state:  ix.state,
		lists:  ix.lists,
		dmap:   ix.dmap,
		ntotal: ix.ntotal,
		device: d,
		logger: ix.logger,
	}
	if ix.quantizer != nil {
		q := NewFlatL2(ix.dim, d)
		q.data, q.ntotal, q.state = ix.quantizer.data, ix.quantizer.ntotal, ix.quantizer.state
		out.quantizer = q
	}
	return out
}

func (ix *IVFFlat) setState(s State) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.state = s
}
