package dbapi

import (
	"fmt"
	"time"
)

// 日期/时间字面量构造器。值以格式化文本而非结构化对象表示,
// 依靠宿主对文本的隐式类型转换

// Date 日期字面量, YYYY-MM-DD
func Date(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Time 时间字面量, HH:MM:SS
func Time(hour, minute, second int) string {
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
}

// Timestamp 时间戳字面量, YYYY-MM-DD HH:MM:SS
func Timestamp(year, month, day, hour, minute, second int) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		year, month, day, hour, minute, second)
}

// DateFromTicks 按本地时区把 Unix 时间戳转成日期字面量
func DateFromTicks(ticks int64) string {
	t := time.Unix(ticks, 0).Local()
	return Date(t.Year(), int(t.Month()), t.Day())
}

// TimeFromTicks 按本地时区把 Unix 时间戳转成时间字面量
func TimeFromTicks(ticks int64) string {
	t := time.Unix(ticks, 0).Local()
	return Time(t.Hour(), t.Minute(), t.Second())
}

// TimestampFromTicks 按本地时区把 Unix 时间戳转成时间戳字面量
func TimestampFromTicks(ticks int64) string {
	t := time.Unix(ticks, 0).Local()
	return Timestamp(t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())
}

// Binary 二进制字面量构造器, 恒等变换
func Binary(b []byte) []byte { return b }
