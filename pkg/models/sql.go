package models

import (
	"fmt"
	"time"
)

// SQLType 定义SQL语句类型
type SQLType string

const (
	SQLTypeQuery SQLType = "query"
	SQLTypeExec  SQLType = "exec"
)

// SQLTask 表示脚本中的单条SQL语句
type SQLTask struct {
	SQL      string
	Type     SQLType
	LineNum  int
	Filename string
}

// Result 表示脚本执行结果
type Result struct {
	Success   int
	Failed    int
	Rows      int64
	Errors    []error
	StartTime time.Time
	EndTime   time.Time
}

// NewResult 创建新的结果对象
func NewResult() *Result {
	return &Result{
		StartTime: time.Now(),
	}
}

// AddError 添加错误
func (r *Result) AddError(task SQLTask, err error) {
	r.Failed++
	r.Errors = append(r.Errors, NewScriptError(task, err))
}

// AddSuccess 添加成功, rows 为该语句的行数, 未知时传 -1
func (r *Result) AddSuccess(rows int64) {
	r.Success++
	if rows > 0 {
		r.Rows += rows
	}
}

// Finish 完成执行
func (r *Result) Finish() {
	r.EndTime = time.Now()
}

// Print 打印结果
func (r *Result) Print() {
	duration := r.EndTime.Sub(r.StartTime)

	fmt.Printf("\n执行结果:\n")
	fmt.Printf("总执行时间: %v\n", duration)
	fmt.Printf("成功: %d\n", r.Success)
	fmt.Printf("失败: %d\n", r.Failed)
	fmt.Printf("行数: %d\n", r.Rows)

	if r.Failed > 0 {
		fmt.Printf("\n错误详情:\n")
		for i, err := range r.Errors {
			fmt.Printf("%d. %s\n", i+1, err)
		}
	}
}
