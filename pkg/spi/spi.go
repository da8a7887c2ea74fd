// Package spi 定义宿主数据库引擎的进程内执行原语接口。
//
// dbapi 层只依赖本包的接口, 不关心语句实际如何被解析、规划和执行:
// 在服务器进程内, 这些原语由宿主引擎直接提供; 在进程外,
// internal/db 用一条 PostgreSQL 客户端连接模拟同样的语义。
package spi

import "errors"

// Status SPI 执行状态码, 与 PostgreSQL 的 SPI 返回码一致
type Status int

const (
	StatusUtility         Status = 4
	StatusSelect          Status = 5
	StatusSelInto         Status = 6
	StatusInsert          Status = 7
	StatusDelete          Status = 8
	StatusUpdate          Status = 9
	StatusCursor          Status = 10
	StatusInsertReturning Status = 11
	StatusDeleteReturning Status = 12
	StatusUpdateReturning Status = 13
)

// HasRows 判断该状态是否携带行集
func (s Status) HasRows() bool {
	switch s {
	case StatusSelect, StatusInsertReturning, StatusDeleteReturning, StatusUpdateReturning:
		return true
	}
	return false
}

// TypeID 宿主类型标识 (pg_type 的 OID)
type TypeID uint32

// Plan 预编译语句句柄。由引擎创建, 只能交回创建它的引擎执行,
// 对调用方完全不透明
type Plan interface{}

// Row 一行查询结果, 支持按列名取值
type Row interface {
	// Columns 返回该行自身记录的列名顺序。宿主不提供查询级列顺序
	// 元数据时, 结果物化会回退到这个顺序, 在老版本宿主上它不一定
	// 与 SQL 声明的列顺序一致
	Columns() []string

	// Get 按列名取值, 列不存在时 ok 为 false
	Get(name string) (value interface{}, ok bool)
}

// Result 一次语句执行的结果
type Result interface {
	// Status 语句的执行状态码
	Status() Status

	// NRows 宿主报告的受影响/返回行数
	NRows() int

	// Rows 行集。仅在 Status().HasRows() 时非空
	Rows() []Row

	// ColNames 查询声明顺序的列名列表。老版本宿主不提供该元数据,
	// 此时 ok 为 false
	ColNames() (names []string, ok bool)

	// ColTypes 与 ColNames 同顺序的列类型标识列表
	ColTypes() (types []TypeID, ok bool)
}

// ErrRollback 显式回滚子事务时传给 Exit 的哨兵原因
var ErrRollback = errors.New("rollback requested")

// Subtransaction 宿主子事务原语: 外层事务始终打开,
// 子事务是其中一段可独立放弃的工作单元。
// Exit 的 cause 非 nil 时丢弃作用域内的全部效果, 为 nil 时提交
type Subtransaction interface {
	Enter() error
	Exit(cause error) error
}

// Engine 宿主引擎执行原语
type Engine interface {
	// Prepare 预编译一条带 $n 占位符的语句,
	// argTypes 按占位符顺序给出各参数的类型名
	Prepare(query string, argTypes []string) (Plan, error)

	// Execute 以给定参数执行预编译语句
	Execute(plan Plan, args []interface{}) (Result, error)

	// Subtransaction 分配一个新的子事务作用域 (尚未进入)
	Subtransaction() Subtransaction
}
