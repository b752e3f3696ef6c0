package vector

import (
	"fmt"

	"github.com/rushteam/simrec/core"
)

// Index 错误定义
var (
	// ErrIndexNotTrained 未训练就添加向量
	ErrIndexNotTrained = core.NewDomainError(core.ModuleIndex, core.ErrorCodeFailedPrecondition, "index: add before train")

	// ErrIndexAlreadyTrained 重复训练
	ErrIndexAlreadyTrained = core.NewDomainError(core.ModuleIndex, core.ErrorCodeFailedPrecondition, "index: already trained")

	// ErrIndexNotReady 索引尚未填充或加载，不可检索
	ErrIndexNotReady = core.NewDomainError(core.ModuleIndex, core.ErrorCodeFailedPrecondition, "index: not ready for search")

	// ErrEmptyTrainingSet 训练集为空
	ErrEmptyTrainingSet = core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: empty training set")

	// ErrDeviceUnavailable 加速设备不可用
	ErrDeviceUnavailable = core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnavailable, "index: accelerator unavailable")

	// ErrTempMemoryExceeded 单批次超出设备临时内存预算
	ErrTempMemoryExceeded = core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnavailable, "index: batch exceeds device temp memory")

	// ErrNoIndexBackend 所有构建策略均失败
	ErrNoIndexBackend = core.NewDomainError(core.ModuleIndex, core.ErrorCodeUnavailable, "index: no backend could be constructed")

	// ErrIDOverflow 32 位行号溢出
	ErrIDOverflow = core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: row id exceeds 32-bit range")

	// ErrCorruptIndex 索引文件损坏
	ErrCorruptIndex = core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: corrupt index file")
)

func errDimensionMismatch(want, got int) error {
	return core.NewDomainError(core.ModuleIndex, core.ErrorCodeDimensionMismatch,
		fmt.Sprintf("index: dimension mismatch, want %d got %d", want, got))
}

func errRowOutOfRange(row, ntotal int64) error {
	return core.NewDomainError(core.ModuleIndex, core.ErrorCodeNotFound,
		fmt.Sprintf("index: row %d out of range [0, %d)", row, ntotal))
}
