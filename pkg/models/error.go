package models

import "fmt"

// ScriptError 脚本语句执行错误, 携带语句位置信息
type ScriptError struct {
	SQL  string
	Line int
	File string
	Err  error
}

// NewScriptError 创建脚本错误
func NewScriptError(task SQLTask, err error) *ScriptError {
	return &ScriptError{
		SQL:  task.SQL,
		Line: task.LineNum,
		File: task.Filename,
		Err:  err,
	}
}

// NewErrorResult 创建只包含一个错误的结果
func NewErrorResult(err error) *Result {
	return &Result{
		Success: 0,
		Failed:  1,
		Errors:  []error{err},
	}
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("SQL错误 [%s:%d]: %v\nSQL: %s", e.File, e.Line, e.Err, e.SQL)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
