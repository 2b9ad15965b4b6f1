// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeTimeout      Code = "TIMEOUT"

	// 生产排程相关
	CodeWorkerNotFound     Code = "WORKER_NOT_FOUND"
	CodeLineNotFound       Code = "PRODUCTION_LINE_NOT_FOUND"
	CodeScheduleNotFound   Code = "SCHEDULE_NOT_FOUND"
	CodeAssignmentConflict Code = "ASSIGNMENT_CONFLICT"
	CodeAllocationExceeded Code = "ALLOCATION_EXCEEDED"
	CodeInvalidShift       Code = "INVALID_SHIFT"
	CodeInvalidSkillLevel  Code = "INVALID_SKILL_LEVEL"
	CodeWorkspaceMismatch  Code = "WORKSPACE_MISMATCH"

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidShift, CodeInvalidSkillLevel:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeWorkspaceMismatch:
		return http.StatusForbidden
	case CodeNotFound, CodeWorkerNotFound, CodeLineNotFound, CodeScheduleNotFound:
		return http.StatusNotFound
	case CodeAssignmentConflict, CodeAllocationExceeded:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// 预定义错误
var (
	ErrInvalidInput = New(CodeInvalidInput, "输入参数无效")
	ErrInternal     = New(CodeInternal, "内部错误")
	ErrTimeout      = New(CodeTimeout, "操作超时")
)

// WorkerNotFound 创建工人不存在错误
func WorkerNotFound(id string) *AppError {
	return New(CodeWorkerNotFound, "Worker not found").WithField("worker_id", id)
}

// LineNotFound 创建产线不存在错误
func LineNotFound(id string) *AppError {
	return New(CodeLineNotFound, "Production line not found").WithField("production_line_id", id)
}

// ScheduleNotFound 创建排程不存在错误
func ScheduleNotFound(id string) *AppError {
	return New(CodeScheduleNotFound, fmt.Sprintf("生产排程 '%s' 不存在", id))
}

// AssignmentConflict 创建指派冲突错误
func AssignmentConflict(workerID, date string) *AppError {
	return New(CodeAssignmentConflict, fmt.Sprintf("工人 %s 在 %s 已存在冲突指派", workerID, date))
}

// AllocationExceeded 创建超出分配额度错误
func AllocationExceeded(workerID, date string, requested, available float64) *AppError {
	return New(CodeAllocationExceeded,
		fmt.Sprintf("工人 %s 在 %s 请求 %.1f 小时，剩余额度仅 %.1f 小时", workerID, date, requested, available))
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// Database 创建数据库错误
func Database(err error, operation string) *AppError {
	return Wrap(err, CodeDatabaseError, fmt.Sprintf("数据库操作失败: %s", operation))
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "验证失败")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
