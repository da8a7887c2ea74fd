package dbapi

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInferParamType(t *testing.T) {
	dec := decimal.New(12345, -2)

	tests := []struct {
		name      string
		param     interface{}
		wantType  string
		wantValue interface{}
	}{
		{"布尔", true, "bool", true},
		{"精确小数", dec, "numeric", dec},
		{"精确小数指针", &dec, "numeric", dec},
		{"float64", 3.14, "float8", 3.14},
		{"float32", float32(1.5), "float8", float32(1.5)},
		{"int", 42, "int", 42},
		{"int64", int64(1 << 40), "int", int64(1 << 40)},
		{"uint8", uint8(7), "int", uint8(7)},
		{"大整数", big.NewInt(99), "int", big.NewInt(99)},
		{"字节切片", []byte{0x01, 0x02}, "bytea", []byte{0x01, 0x02}},
		{"字节缓冲", bytes.NewBuffer([]byte("blob")), "bytea", []byte("blob")},
		{"字符串切片", []string{"a", "b"}, "text[]", []string{"a", "b"}},
		{"整数切片", []int{1, 2}, "text[]", []int{1, 2}},
		{"字符串", "hello", "text", "hello"},
		{"时间值按文本处理", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "text",
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotValue := inferParamType(tt.param)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantValue, gotValue)
		})
	}
}

// 布尔必须先于整数判定: 重叠的运行时表示使得判定顺序成为正确性要求
func TestInferParamTypeOrder(t *testing.T) {
	gotType, _ := inferParamType(true)
	assert.Equal(t, "bool", gotType)

	// []byte 也是切片, 必须先于通用切片判定
	gotType, _ = inferParamType([]byte("x"))
	assert.Equal(t, "bytea", gotType)
}

func TestSubstitutePlaceholders(t *testing.T) {
	tests := []struct {
		name         string
		operation    string
		placeholders []string
		want         string
		wantErr      bool
	}{
		{"无占位符", "select 1", nil, "select 1", false},
		{"单个占位符", "select %s", []string{"$1"}, "select $1", false},
		{"NULL 替换", "insert into t values (%s, %s)", []string{"$1", "NULL"},
			"insert into t values ($1, NULL)", false},
		{"转义", "select '%%' || %s", []string{"$1"}, "select '%' || $1", false},
		{"标记过多", "select %s, %s", []string{"$1"}, "", true},
		{"占位符过多", "select %s", []string{"$1", "$2"}, "", true},
		{"尾部裸百分号", "select 1 %", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := substitutePlaceholders(tt.operation, tt.placeholders)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
