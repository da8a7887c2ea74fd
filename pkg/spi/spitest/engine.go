// Package spitest 提供一个脚本化的假引擎, 用于在没有宿主数据库的
// 环境里测试 dbapi 层: 测试按改写后的查询文本登记预期结果,
// 引擎记录所有 Prepare/Execute 调用供断言。
package spitest

import (
	"fmt"
	"sync"

	"github.com/Connexions/plpydbapi/pkg/spi"
)

// PreparedCall 一次 Prepare 调用的记录
type PreparedCall struct {
	Query    string
	ArgTypes []string
}

// ExecutedCall 一次 Execute 调用的记录
type ExecutedCall struct {
	Query string
	Args  []interface{}
}

// Subxact 假子事务, 记录进入/退出状态供断言
type Subxact struct {
	Entered  bool
	Exited   bool
	Cause    error
	EnterErr error
	ExitErr  error
}

func (s *Subxact) Enter() error {
	if s.EnterErr != nil {
		return s.EnterErr
	}
	s.Entered = true
	return nil
}

func (s *Subxact) Exit(cause error) error {
	s.Exited = true
	s.Cause = cause
	return s.ExitErr
}

// Engine 脚本化假引擎
type Engine struct {
	mu       sync.Mutex
	results  map[string][]*Result
	Prepared []PreparedCall
	Executed []ExecutedCall
	Subxacts []*Subxact

	prepareErr error
	executeErr error
}

// NewEngine 创建空的假引擎
func NewEngine() *Engine {
	return &Engine{results: make(map[string][]*Result)}
}

// On 为某条改写后的查询登记预期结果。同一查询可登记多个结果,
// 依次消费, 最后一个保持粘性 (供 ExecuteMany 复用)
func (e *Engine) On(query string, results ...*Result) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[query] = append(e.results[query], results...)
	return e
}

// FailNextPrepare 让下一次 Prepare 返回给定错误
func (e *Engine) FailNextPrepare(err error) { e.prepareErr = err }

// FailNextExecute 让下一次 Execute 返回给定错误
func (e *Engine) FailNextExecute(err error) { e.executeErr = err }

type plan struct {
	query    string
	argTypes []string
}

func (e *Engine) Prepare(query string, argTypes []string) (spi.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Prepared = append(e.Prepared, PreparedCall{Query: query, ArgTypes: argTypes})
	if err := e.prepareErr; err != nil {
		e.prepareErr = nil
		return nil, err
	}
	return &plan{query: query, argTypes: argTypes}, nil
}

func (e *Engine) Execute(p spi.Plan, args []interface{}) (spi.Result, error) {
	pl, ok := p.(*plan)
	if !ok {
		return nil, fmt.Errorf("spitest: 不是本引擎创建的执行计划")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Executed = append(e.Executed, ExecutedCall{Query: pl.query, Args: args})
	if err := e.executeErr; err != nil {
		e.executeErr = nil
		return nil, err
	}
	queue := e.results[pl.query]
	if len(queue) == 0 {
		return nil, fmt.Errorf("spitest: 未登记的查询: %s", pl.query)
	}
	res := queue[0]
	if len(queue) > 1 {
		e.results[pl.query] = queue[1:]
	}
	return res, nil
}

func (e *Engine) Subtransaction() spi.Subtransaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	sx := &Subxact{}
	e.Subxacts = append(e.Subxacts, sx)
	return sx
}

// LastSubxact 最近分配的子事务, 没有时返回 nil
func (e *Engine) LastSubxact() *Subxact {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Subxacts) == 0 {
		return nil
	}
	return e.Subxacts[len(e.Subxacts)-1]
}
