package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 召回降级：DEGRADED（协同过滤数据不足时回退到内容推荐）
//   - 上游不可用：UNAVAILABLE（存储/商品目录不可达，按冷启动处理）
//   - 输入无效：INVALID_INPUT（缺少 user_id、未知算法等）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DEGRADED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recall"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
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

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 上游不可用
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
	ErrorCodeTimeout      = "TIMEOUT"       // 调用超时
	ErrorCodeDegraded     = "DEGRADED"      // 召回降级（数据不足，走下一档算法）
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleBehavior = "behavior" // 用户行为模块
	ModuleCatalog  = "catalog"  // 商品目录模块
	ModuleRecall   = "recall"   // 召回模块
	ModuleCache    = "cache"    // 缓存模块
	ModuleAdvisor  = "advisor"  // 导购问答模块
	ModuleEngine   = "engine"   // 推荐引擎模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED。
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE。
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT。
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsDegraded 检查错误是否为召回降级信号。
// 降级不是失败：调用方应当换下一档算法继续，而不是向上抛错。
func IsDegraded(err error) bool { return hasCode(err, ErrorCodeDegraded) }
