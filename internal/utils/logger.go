package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 基于 zap 的结构化日志记录器
type Logger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger 创建写入指定文件的日志记录器, verbose 开启时同时输出到控制台
func NewLogger(logFile string, level string, verbose bool) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	config.OutputPaths = []string{logFile}
	if verbose {
		config.OutputPaths = append(config.OutputPaths, "stdout")
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("创建日志记录器失败: %w", err)
	}

	return &Logger{base: base, sugar: base.Sugar()}, nil
}

// NewNopLogger 创建不输出任何内容的日志记录器, 供测试使用
func NewNopLogger() *Logger {
	base := zap.NewNop()
	return &Logger{base: base, sugar: base.Sugar()}
}

// parseLevel 解析日志级别字符串, 无法识别时使用 info
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug 记录调试日志
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, args...)
}

// Info 记录信息日志
func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, args...)
}

// Warn 记录警告日志
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, args...)
}

// Error 记录错误日志
func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, args...)
}

// Sugar 暴露底层 SugaredLogger, 供连接层注入
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// Close 刷出缓冲的日志
func (l *Logger) Close() error {
	return l.base.Sync()
}
