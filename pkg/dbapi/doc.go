// Package dbapi 在宿主数据库引擎的进程内执行原语之上, 提供一个
// 兼容标准客户端 API 子集的连接/游标接口, 让按标准 API 编写的脚本
// 无需修改即可在服务器的过程语言执行环境中运行。
//
// 宿主侧的 SQL 解析、规划与执行由 spi.Engine 的实现提供, 本包只做
// 四件事: 占位符改写、参数类型推断、结果物化, 以及用子事务作用域
// 模拟显式事务边界。
//
// 执行模型是单线程协作式的: 本包不产生任何并发, ThreadSafety 为 0,
// 连接和游标实例不能跨 goroutine 共享。
package dbapi

// 模块级常量, 对应标准客户端 API 的模块属性
const (
	// APILevel 支持的 API 版本
	APILevel = "2.0"
	// ThreadSafety 0: 实例不能跨线程共享
	ThreadSafety = 0
	// ParamStyle 占位符风格, format 即 %s
	ParamStyle = "format"
)
