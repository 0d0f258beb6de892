package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Catalog / Audit 错误：NOT_FOUND（物品不存在、查询记录不存在）
//   - NLP / Vector 错误：UNAVAILABLE
//   - Engine 错误：INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_SUPPORTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "nlp"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果不存在则返回 nil
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

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // KV 存储模块
	ModuleCatalog = "catalog" // 物品目录
	ModuleAudit   = "audit"   // 查询审计
	ModuleVector  = "vector"  // 向量模块
	ModuleNLP     = "nlp"     // 文本理解
	ModuleEngine  = "engine"  // 推荐编排
)

var (
	// ErrItemNotFound 物品不存在（按 ID 查询时返回；搜索无结果不是错误）
	ErrItemNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: item not found")

	// ErrQueryNotFound 审计记录不存在（提交反馈时返回）
	ErrQueryNotFound = NewDomainError(ModuleAudit, ErrorCodeNotFound, "audit: query not found")
)

// 通用错误检查函数

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

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
