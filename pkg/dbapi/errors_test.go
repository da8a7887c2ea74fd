package dbapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStringification(t *testing.T) {
	cause := errors.New("syntax error at or near \"selec\"")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"仅消息", newError("连接已关闭"), "连接已关闭"},
		{"仅宿主原因", &Error{Cause: cause}, cause.Error()},
		{"消息加原因", wrapError("语句执行失败", cause),
			"语句执行失败: " + cause.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrapsHostCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := wrapError("语句执行失败", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorHierarchy(t *testing.T) {
	// 细分子类通过 Unwrap 链参与层级匹配
	intErr := &IntegrityError{
		Base: DatabaseError{Base: Error{Message: "唯一约束冲突"}},
	}

	var dbErr *DatabaseError
	require.True(t, errors.As(error(intErr), &dbErr))

	var base *Error
	require.True(t, errors.As(error(intErr), &base))
	assert.Equal(t, "唯一约束冲突", base.Message)

	// InterfaceError 不在 DatabaseError 分支下
	ifErr := &InterfaceError{Base: Error{Message: "接口误用"}}
	var dbErr2 *DatabaseError
	assert.False(t, errors.As(error(ifErr), &dbErr2))
}

func TestWarning(t *testing.T) {
	w := &Warning{Message: "implicit cast"}
	assert.Equal(t, "implicit cast", w.Error())
}
