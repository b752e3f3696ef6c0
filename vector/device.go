package vector

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultTempMemory 设备临时内存预算（4 GiB）
const DefaultTempMemory int64 = 4 << 30

// Resources 设备资源，初始化时一次性确定，运行期间不再修改。
type Resources struct {
	// TempMemory 单批次可用的临时内存（字节）
	TempMemory int64
	// Workers 并行度
	Workers int
}

// Device 加速设备抽象：提供分块并行执行与临时内存预算。
//
// 同一输入在设备与 CPU 上得到完全相同的结果：设备只改变执行方式，不改变计算顺序。
type Device interface {
	// Name 设备名称（用于日志/监控）
	Name() string

	// Available 返回 nil 表示设备可用
	Available() error

	// Resources 返回设备资源
	Resources() Resources

	// Reserve 检查一次批处理所需的临时内存
	Reserve(bytes int64) error

	// ParallelFor 将 [0, n) 切块并行执行 fn，返回首个错误
	ParallelFor(ctx context.Context, n int, fn func(lo, hi int) error) error
}

// ParallelDevice 基于 goroutine 扇出的加速设备。
type ParallelDevice struct {
	res Resources
}

var _ Device = (*ParallelDevice)(nil)

// NewParallelDevice 创建设备；Workers <= 0 时取 GOMAXPROCS，TempMemory <= 0 时取 4 GiB。
func NewParallelDevice(res Resources) *ParallelDevice {
	if res.Workers <= 0 {
		res.Workers = runtime.GOMAXPROCS(0)
	}
	if res.TempMemory <= 0 {
		res.TempMemory = DefaultTempMemory
	}
	return &ParallelDevice{res: res}
}

func (d *ParallelDevice) Name() string         { return "parallel" }
func (d *ParallelDevice) Available() error     { return nil }
func (d *ParallelDevice) Resources() Resources { return d.res }

func (d *ParallelDevice) Reserve(bytes int64) error {
	if bytes > d.res.TempMemory {
		return ErrTempMemoryExceeded
	}
	return nil
}

func (d *ParallelDevice) ParallelFor(ctx context.Context, n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(d.res.Workers, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

// DisabledDevice 始终不可用的设备，用于关闭加速或强制走 CPU 回退。
type DisabledDevice struct{}

var _ Device = DisabledDevice{}

func (DisabledDevice) Name() string                { return "disabled" }
func (DisabledDevice) Available() error            { return ErrDeviceUnavailable }
func (DisabledDevice) Resources() Resources        { return Resources{} }
func (DisabledDevice) Reserve(bytes int64) error   { return ErrDeviceUnavailable }
func (DisabledDevice) ParallelFor(ctx context.Context, n int, fn func(lo, hi int) error) error {
	return ErrDeviceUnavailable
}

// serialFor 是 CPU 路径的顺序执行。
func serialFor(ctx context.Context, n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(0, n)
}
