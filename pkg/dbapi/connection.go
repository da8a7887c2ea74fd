package dbapi

import (
	"go.uber.org/zap"

	"github.com/Connexions/plpydbapi/pkg/spi"
)

// Connection 代表宿主进程中已经打开的数据库会话。
// 宿主环境不向内嵌脚本暴露显式事务控制 (会话始终处于外层事务之中),
// Commit/Rollback 通过按需打开、关闭子事务作用域来模拟
type Connection struct {
	engine  spi.Engine
	logger  *zap.SugaredLogger
	typemap *TypeMap
	subxact spi.Subtransaction
	closed  bool
}

// Option 连接选项
type Option func(*Connection)

// WithLogger 设置结构化日志记录器, 缺省不输出任何日志
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Connect 基于给定的宿主引擎创建连接。
// 会话在宿主侧始终是打开的, 这里不涉及网络、认证或连接池
func Connect(engine spi.Engine, opts ...Option) *Connection {
	conn := &Connection{
		engine: engine,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(conn)
	}
	conn.typemap = NewTypeMap(engine, conn.logger)
	return conn
}

// Cursor 分配一个绑定到本连接的新游标
func (c *Connection) Cursor() *Cursor {
	return &Cursor{
		Arraysize: 1,
		conn:      c,
		rowcount:  -1,
	}
}

// Commit 提交当前子事务作用域, 没有打开的作用域时是空操作。
// 连接已关闭时返回错误
func (c *Connection) Commit() error {
	if c.closed {
		return newError("连接已关闭")
	}
	return c.exitScope(nil)
}

// Rollback 回滚当前子事务作用域, 没有打开的作用域时是空操作。
// 连接已关闭时返回错误
func (c *Connection) Rollback() error {
	if c.closed {
		return newError("连接已关闭")
	}
	return c.exitScope(spi.ErrRollback)
}

// Close 回滚未提交的作用域并关闭连接, 之后派生的游标全部拒绝执行。
// 重复关闭是错误, 不是幂等操作
func (c *Connection) Close() error {
	if c.closed {
		return newError("连接已关闭")
	}
	err := c.exitScope(spi.ErrRollback)
	c.closed = true
	return err
}

// Closed 连接是否已关闭
func (c *Connection) Closed() bool { return c.closed }

// ensureTransaction 惰性打开子事务作用域: 只在创建或上次
// commit/rollback 之后的第一条语句执行前打开,
// 从不执行语句的只读会话不产生作用域开销
func (c *Connection) ensureTransaction() error {
	if c.subxact != nil {
		return nil
	}
	sx := c.engine.Subtransaction()
	if err := sx.Enter(); err != nil {
		return wrapError("打开子事务作用域失败", err)
	}
	c.logger.Debugw("打开子事务作用域")
	c.subxact = sx
	return nil
}

// exitScope 关闭当前作用域。无论成败, 作用域引用都会被清除
func (c *Connection) exitScope(cause error) error {
	if c.subxact == nil {
		return nil
	}
	sx := c.subxact
	c.subxact = nil
	if err := sx.Exit(cause); err != nil {
		return wrapError("关闭子事务作用域失败", err)
	}
	c.logger.Debugw("关闭子事务作用域", "committed", cause == nil)
	return nil
}
