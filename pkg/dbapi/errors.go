package dbapi

import (
	"errors"
	"fmt"
)

// Scroll 的定位错误
var (
	// ErrScrollMode 无法识别的 scroll 模式
	ErrScrollMode = errors.New("无效的 scroll 模式")
	// ErrScrollRange scroll 目标位置超出结果集范围
	ErrScrollRange = errors.New("scroll 目标位置超出结果集范围")
)

// Warning 标准客户端 API 的告警类型
type Warning struct {
	Message string
}

func (w *Warning) Error() string { return w.Message }

// Error 错误层级的基类, 可携带宿主引擎的原始错误。
// 本包自身只会返回 *Error: 误用已关闭的资源时返回不带原因的错误,
// 执行失败时包装宿主错误; 宿主原生错误不会不经包装越过边界。
// 细分子类为兼容标准 API 层级而保留, 通过 Unwrap 链参与
// errors.As/Is 的层级匹配
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(message string) *Error {
	return &Error{Message: message}
}

func wrapError(message string, cause error) *Error {
	return &Error{Message: message, Cause: cause}
}

// InterfaceError 接口误用错误
type InterfaceError struct {
	Base Error
}

func (e *InterfaceError) Error() string { return e.Base.Error() }
func (e *InterfaceError) Unwrap() error { return &e.Base }

// DatabaseError 数据库侧错误
type DatabaseError struct {
	Base Error
}

func (e *DatabaseError) Error() string { return e.Base.Error() }
func (e *DatabaseError) Unwrap() error { return &e.Base }

// DataError 数据表示/取值错误
type DataError struct {
	Base DatabaseError
}

func (e *DataError) Error() string { return e.Base.Error() }
func (e *DataError) Unwrap() error { return &e.Base }

// OperationalError 数据库运行环境错误
type OperationalError struct {
	Base DatabaseError
}

func (e *OperationalError) Error() string { return e.Base.Error() }
func (e *OperationalError) Unwrap() error { return &e.Base }

// IntegrityError 完整性约束错误
type IntegrityError struct {
	Base DatabaseError
}

func (e *IntegrityError) Error() string { return e.Base.Error() }
func (e *IntegrityError) Unwrap() error { return &e.Base }

// InternalError 数据库内部错误
type InternalError struct {
	Base DatabaseError
}

func (e *InternalError) Error() string { return e.Base.Error() }
func (e *InternalError) Unwrap() error { return &e.Base }

// ProgrammingError SQL 编写错误
type ProgrammingError struct {
	Base DatabaseError
}

func (e *ProgrammingError) Error() string { return e.Base.Error() }
func (e *ProgrammingError) Unwrap() error { return &e.Base }

// NotSupportedError 不支持的特性
type NotSupportedError struct {
	Base DatabaseError
}

func (e *NotSupportedError) Error() string { return e.Base.Error() }
func (e *NotSupportedError) Unwrap() error { return &e.Base }
