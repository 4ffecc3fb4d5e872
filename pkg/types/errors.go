package types

import (
	"errors"
	"fmt"
	"strings"
)

// 错误类别, 可用 errors.Is 判断
var (
	ErrArgument   = errors.New("argument error")
	ErrLookup     = errors.New("lookup error")
	ErrValidation = errors.New("validation error")
)

// ArgumentError 调用参数错误
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string {
	return e.Msg
}

// Is 归类为 ErrArgument
func (e *ArgumentError) Is(target error) bool {
	return target == ErrArgument
}

// LookupError 未注册的名称
type LookupError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s: %s. Available: %s", e.Kind, e.Name, formatList(e.Available))
}

// Is 归类为 ErrLookup
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// ValidationError 缺少必需列
type ValidationError struct {
	Dataset string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset '%s' is missing mandatory columns: %s", e.Dataset, formatList(e.Missing))
}

// Is 归类为 ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorKind 错误类别名称, 用于日志和指标标签
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArgument):
		return "argument"
	case errors.Is(err, ErrLookup):
		return "lookup"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
