package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics 语句执行指标收集器
type Metrics struct {
	StartTime      time.Time
	EndTime        time.Time
	StatementCount int64
	SuccessCount   int64
	FailureCount   int64
	RowsAffected   int64
	TotalDuration  int64 // 纳秒
}

// NewMetrics 创建新的指标收集器
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// Start 开始收集指标
func (m *Metrics) Start() {
	m.StartTime = time.Now()
}

// End 结束收集指标
func (m *Metrics) End() {
	m.EndTime = time.Now()
}

// AddStatement 添加语句执行统计, rows 为负值时不计入行数
func (m *Metrics) AddStatement(duration time.Duration, rows int64, success bool) {
	atomic.AddInt64(&m.StatementCount, 1)
	atomic.AddInt64(&m.TotalDuration, int64(duration))

	if rows > 0 {
		atomic.AddInt64(&m.RowsAffected, rows)
	}

	if success {
		atomic.AddInt64(&m.SuccessCount, 1)
	} else {
		atomic.AddInt64(&m.FailureCount, 1)
	}
}

// Duration 获取总执行时间
func (m *Metrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// AverageDuration 获取平均执行时间
func (m *Metrics) AverageDuration() time.Duration {
	count := atomic.LoadInt64(&m.StatementCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.TotalDuration) / count)
}

// String 获取指标字符串表示
func (m *Metrics) String() string {
	return fmt.Sprintf(
		"执行统计:\n"+
			"总执行时间: %v\n"+
			"总语句数: %d\n"+
			"成功数: %d\n"+
			"失败数: %d\n"+
			"影响行数: %d\n"+
			"平均执行时间: %v",
		m.Duration(),
		m.StatementCount,
		m.SuccessCount,
		m.FailureCount,
		m.RowsAffected,
		m.AverageDuration(),
	)
}
