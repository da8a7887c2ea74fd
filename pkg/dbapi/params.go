package dbapi

import (
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// byteser 类字节缓冲对象 (如 *bytes.Buffer)。
// 宿主绑定器要求具体的字节序列, 排队前先取出 []byte
type byteser interface {
	Bytes() []byte
}

// inferParamType 把参数的运行时类型映射到宿主列类型名, 并返回
// 实际排队绑定的值。
//
// 判定顺序是正确性要求而非实现细节: 部分运行时表示能同时通过多项
// 检查 (布尔值也能通过整数检查, []byte 也是切片), 必须依次判
// 布尔 → 精确小数 → 浮点 → 整数 → 字节序列 → 有序序列, 兜底为文本。
// 列表不做元素类型细分, 一律按 text[] 交给宿主的隐式转换
func inferParamType(param interface{}) (pgType string, value interface{}) {
	switch v := param.(type) {
	case bool:
		return "bool", v
	case decimal.Decimal:
		return "numeric", v
	case *decimal.Decimal:
		return "numeric", *v
	case float32, float64:
		return "float8", v
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return "int", v
	case *big.Int:
		return "int", v
	case []byte:
		return "bytea", v
	}
	if b, ok := param.(byteser); ok {
		return "bytea", b.Bytes()
	}
	if reflect.ValueOf(param).Kind() == reflect.Slice {
		return "text[]", param
	}
	return "text", param
}
