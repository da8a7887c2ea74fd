package spitest

import (
	"fmt"

	"github.com/Connexions/plpydbapi/pkg/spi"
)

// Result 链式构造的假执行结果
type Result struct {
	status   spi.Status
	columns  []string
	types    []spi.TypeID
	rowOrder []string
	rows     []spi.Row
	nrows    int
	nrowsSet bool
	noMeta   bool
}

// NewResult 创建给定状态的空结果
func NewResult(status spi.Status) *Result {
	return &Result{status: status}
}

// Columns 设定查询的列顺序
func (r *Result) Columns(names ...string) *Result {
	r.columns = names
	return r
}

// Types 设定与 Columns 同顺序的列类型标识
func (r *Result) Types(oids ...spi.TypeID) *Result {
	r.types = oids
	return r
}

// NoMeta 模拟不暴露查询级列元数据的老版本宿主:
// ColNames/ColTypes 返回 ok=false, 行只携带自身的存储顺序
func (r *Result) NoMeta() *Result {
	r.noMeta = true
	return r
}

// RowOrder 设定行自身的存储顺序 (模拟老版本宿主键顺序
// 与查询声明顺序不一致的情形)。缺省与 Columns 相同
func (r *Result) RowOrder(names ...string) *Result {
	r.rowOrder = names
	return r
}

// Row 按 Columns 顺序追加一行
func (r *Result) Row(values ...interface{}) *Result {
	if len(values) != len(r.columns) {
		panic(fmt.Sprintf("spitest: 行值数量 %d 与列数 %d 不符", len(values), len(r.columns)))
	}
	vals := make(map[string]interface{}, len(values))
	for i, name := range r.columns {
		vals[name] = values[i]
	}
	order := r.rowOrder
	if order == nil {
		order = r.columns
	}
	r.rows = append(r.rows, &row{cols: order, vals: vals})
	return r
}

// SetNRows 覆盖宿主报告的行数 (DML 等不携带行集的状态使用)
func (r *Result) SetNRows(n int) *Result {
	r.nrows = n
	r.nrowsSet = true
	return r
}

func (r *Result) Status() spi.Status { return r.status }

func (r *Result) NRows() int {
	if r.nrowsSet {
		return r.nrows
	}
	return len(r.rows)
}

func (r *Result) Rows() []spi.Row { return r.rows }

func (r *Result) ColNames() ([]string, bool) {
	if r.noMeta {
		return nil, false
	}
	return r.columns, true
}

func (r *Result) ColTypes() ([]spi.TypeID, bool) {
	if r.noMeta || r.types == nil {
		return nil, false
	}
	return r.types, true
}

type row struct {
	cols []string
	vals map[string]interface{}
}

func (r *row) Columns() []string { return r.cols }

func (r *row) Get(name string) (interface{}, bool) {
	v, ok := r.vals[name]
	return v, ok
}
