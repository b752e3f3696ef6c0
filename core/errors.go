package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Index 错误：FAILED_PRECONDITION, DIMENSION_MISMATCH, UNAVAILABLE
//   - Embed 错误：INVALID_INPUT
//
// 调用方通过 fmt.Errorf("...: %w", err) 包装后仍可用 IsXXX 判断。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "FAILED_PRECONDITION"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "index", "embed"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 使同模块同错误码的 DomainError 在 errors.Is 下视为相等。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code && e.Message == t.Message
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 资源不存在
	ErrorCodeNotSupported       = "NOT_SUPPORTED"       // 操作不支持
	ErrorCodeUnavailable        = "UNAVAILABLE"         // 后端不可用（如加速设备）
	ErrorCodeInvalidInput       = "INVALID_INPUT"       // 输入无效
	ErrorCodeFailedPrecondition = "FAILED_PRECONDITION" // 状态机前置条件不满足
	ErrorCodeDimensionMismatch  = "DIMENSION_MISMATCH"  // 向量维度不一致
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleFeature = "feature" // 特征模块
	ModuleEmbed   = "embed"   // 向量化模块
	ModuleIndex   = "index"   // ANN 索引模块
	ModuleCatalog = "catalog" // 元数据模块
	ModuleService = "service" // 服务模块
	ModuleConfig  = "config"  // 配置模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsInvalidState 检查错误是否为 FAILED_PRECONDITION（索引状态不允许该操作）
func IsInvalidState(err error) bool {
	return hasCode(err, ErrorCodeFailedPrecondition)
}

// IsDimensionMismatch 检查错误是否为 DIMENSION_MISMATCH
func IsDimensionMismatch(err error) bool {
	return hasCode(err, ErrorCodeDimensionMismatch)
}
