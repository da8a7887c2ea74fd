// Package db 用一条 PostgreSQL 客户端连接模拟宿主引擎的进程内执行原语。
//
// 服务器内嵌环境下语句由宿主直接规划执行, 本包在进程外提供等价语义:
// 预编译、带状态码的执行结果、以及可独立放弃的子事务作用域。
package db

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Connexions/plpydbapi/internal/config"
	"github.com/Connexions/plpydbapi/internal/utils"
	"github.com/Connexions/plpydbapi/pkg/spi"
)

// Engine 基于 lib/pq 的宿主引擎适配器, 实现 spi.Engine
type Engine struct {
	db      *sqlx.DB
	id      string
	logger  *utils.Logger
	metrics *utils.Metrics

	mu sync.Mutex
	tx *sqlx.Tx

	typeOnce sync.Once
	typeIDs  map[string]spi.TypeID
}

// Open 按数据库配置建立引擎连接
func Open(cfg *config.DatabaseConfig, logger *utils.Logger) (*Engine, error) {
	e, err := OpenDSN(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		e.db.SetMaxOpenConns(cfg.MaxConnections)
		e.db.SetMaxIdleConns(cfg.MaxConnections / 2)
	}
	if cfg.IdleTimeout > 0 {
		e.db.SetConnMaxIdleTime(cfg.IdleTimeout)
	}
	return e, nil
}

// OpenDSN 按连接字符串建立引擎连接
func OpenDSN(dsn string, logger *utils.Logger) (*Engine, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	e := &Engine{
		db:      db,
		id:      uuid.NewString(),
		logger:  logger,
		metrics: utils.NewMetrics(),
	}
	logger.Info("引擎连接已建立", "engine_id", e.id)
	return e, nil
}

// NewEngine 包装既有的 sqlx 连接, 供测试注入
func NewEngine(db *sqlx.DB, logger *utils.Logger) *Engine {
	return &Engine{
		db:      db,
		id:      uuid.NewString(),
		logger:  logger,
		metrics: utils.NewMetrics(),
	}
}

// plan 预编译语句, 只能交回创建它的引擎执行
type plan struct {
	engine   *Engine
	query    string
	argTypes []string
	status   spi.Status
}

var returningPattern = regexp.MustCompile(`(?is)\breturning\b`)

// classifyStatement 按语句前缀推断 SPI 状态码
func classifyStatement(query string) spi.Status {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "SELECT"),
		strings.HasPrefix(upper, "WITH"),
		strings.HasPrefix(upper, "TABLE"),
		strings.HasPrefix(upper, "VALUES"),
		strings.HasPrefix(upper, "SHOW"),
		strings.HasPrefix(upper, "EXPLAIN"):
		return spi.StatusSelect
	case strings.HasPrefix(upper, "INSERT"):
		if returningPattern.MatchString(trimmed) {
			return spi.StatusInsertReturning
		}
		return spi.StatusInsert
	case strings.HasPrefix(upper, "UPDATE"):
		if returningPattern.MatchString(trimmed) {
			return spi.StatusUpdateReturning
		}
		return spi.StatusUpdate
	case strings.HasPrefix(upper, "DELETE"):
		if returningPattern.MatchString(trimmed) {
			return spi.StatusDeleteReturning
		}
		return spi.StatusDelete
	case strings.HasPrefix(upper, "DECLARE"),
		strings.HasPrefix(upper, "FETCH"),
		strings.HasPrefix(upper, "MOVE"):
		return spi.StatusCursor
	}
	return spi.StatusUtility
}

// Prepare 预编译一条带 $n 占位符的语句
func (e *Engine) Prepare(query string, argTypes []string) (spi.Plan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("语句不能为空")
	}

	return &plan{
		engine:   e,
		query:    query,
		argTypes: argTypes,
		status:   classifyStatement(query),
	}, nil
}

// Execute 以给定参数执行预编译语句
func (e *Engine) Execute(pl spi.Plan, args []interface{}) (spi.Result, error) {
	p, ok := pl.(*plan)
	if !ok || p.engine != e {
		return nil, fmt.Errorf("执行计划不属于当前引擎")
	}

	dargs := driverArgs(args)
	start := time.Now()

	var (
		result *engineResult
		err    error
	)
	if p.status.HasRows() {
		result, err = e.query(p, dargs)
	} else {
		result, err = e.exec(p, dargs)
	}
	duration := time.Since(start)

	if err != nil {
		e.metrics.AddStatement(duration, 0, false)
		e.logger.Error("语句执行失败",
			"engine_id", e.id,
			"sql", p.query,
			"duration", duration,
			"error", err)
		return nil, err
	}

	e.metrics.AddStatement(duration, int64(result.nrows), true)
	e.logger.Debug("语句执行成功",
		"engine_id", e.id,
		"sql", p.query,
		"status", int(result.status),
		"nrows", result.nrows,
		"duration", duration)
	return result, nil
}

// ext 返回当前执行载体: 子事务进行中时为事务, 否则为连接池
func (e *Engine) ext() sqlx.Ext {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

// query 执行行集语句并物化全部行
func (e *Engine) query(p *plan, args []interface{}) (*engineResult, error) {
	rows, err := e.ext().Queryx(p.query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	types := make([]spi.TypeID, len(colTypes))
	hasTypes := true
	binary := make([]bool, len(colTypes))
	for i, ct := range colTypes {
		name := strings.ToLower(ct.DatabaseTypeName())
		binary[i] = name == "bytea"
		id, ok := e.typeID(name)
		if !ok {
			hasTypes = false
		}
		types[i] = id
	}

	var materialized []spi.Row
	for rows.Next() {
		vals := map[string]interface{}{}
		if err := rows.MapScan(vals); err != nil {
			return nil, err
		}
		// 驱动把文本列扫描为 []byte, 非二进制列还原为 string
		for i, col := range cols {
			if b, ok := vals[col].([]byte); ok && !binary[i] {
				vals[col] = string(b)
			}
		}
		materialized = append(materialized, &engineRow{cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &engineResult{
		status:   p.status,
		nrows:    len(materialized),
		rows:     materialized,
		cols:     cols,
		types:    types,
		hasMeta:  true,
		hasTypes: hasTypes,
	}, nil
}

// exec 执行无行集语句
func (e *Engine) exec(p *plan, args []interface{}) (*engineResult, error) {
	res, err := e.ext().Exec(p.query, args...)
	if err != nil {
		return nil, err
	}

	nrows := 0
	if p.status != spi.StatusUtility {
		if affected, err := res.RowsAffected(); err == nil {
			nrows = int(affected)
		}
	}
	return &engineResult{status: p.status, nrows: nrows}, nil
}

// typeID 按类型名查 pg_type 的 OID, 目录首次访问时整体加载
func (e *Engine) typeID(name string) (spi.TypeID, bool) {
	e.typeOnce.Do(func() {
		rows, err := e.db.Queryx("SELECT typname, oid FROM pg_type")
		if err != nil {
			e.logger.Warn("加载类型目录失败", "engine_id", e.id, "error", err)
			return
		}
		defer rows.Close()

		ids := make(map[string]spi.TypeID)
		for rows.Next() {
			var typname string
			var oid int64
			if err := rows.Scan(&typname, &oid); err != nil {
				e.logger.Warn("读取类型目录失败", "engine_id", e.id, "error", err)
				return
			}
			ids[typname] = spi.TypeID(oid)
		}
		if err := rows.Err(); err != nil {
			e.logger.Warn("读取类型目录失败", "engine_id", e.id, "error", err)
			return
		}
		e.typeIDs = ids
	})

	if e.typeIDs == nil {
		return 0, false
	}
	id, ok := e.typeIDs[name]
	return id, ok
}

// Subtransaction 分配一个新的子事务作用域
func (e *Engine) Subtransaction() spi.Subtransaction {
	return &subxact{engine: e}
}

// subxact 把子事务作用域映射为一个客户端事务
type subxact struct {
	engine  *Engine
	entered bool
}

// Enter 进入子事务作用域
func (s *subxact) Enter() error {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tx != nil {
		return fmt.Errorf("子事务作用域已存在")
	}

	tx, err := e.db.Beginx()
	if err != nil {
		return fmt.Errorf("开启子事务失败: %w", err)
	}
	e.tx = tx
	s.entered = true
	e.logger.Debug("进入子事务作用域", "engine_id", e.id)
	return nil
}

// Exit 退出子事务作用域, cause 非 nil 时放弃作用域内全部效果
func (s *subxact) Exit(cause error) error {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.entered || e.tx == nil {
		return fmt.Errorf("没有进行中的子事务")
	}

	tx := e.tx
	e.tx = nil
	s.entered = false

	if cause != nil {
		e.logger.Debug("回滚子事务作用域", "engine_id", e.id, "cause", cause)
		if err := tx.Rollback(); err != nil {
			return fmt.Errorf("回滚子事务失败: %w", err)
		}
		return nil
	}

	e.logger.Debug("提交子事务作用域", "engine_id", e.id)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交子事务失败: %w", err)
	}
	return nil
}

// driverArgs 把排队的绑定值转换为驱动可接受的表示
func driverArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *big.Int:
			out[i] = v.String()
		case []byte:
			out[i] = v
		default:
			if a != nil && reflect.ValueOf(a).Kind() == reflect.Slice {
				out[i] = pq.Array(a)
				continue
			}
			out[i] = a
		}
	}
	return out
}

// Ping 检查连接可用性
func (e *Engine) Ping() error {
	return e.db.Ping()
}

// Close 关闭引擎连接, 进行中的子事务被回滚
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.tx != nil {
		e.tx.Rollback()
		e.tx = nil
	}
	e.mu.Unlock()

	e.logger.Info("引擎连接已关闭", "engine_id", e.id, "metrics", e.metrics.String())
	return e.db.Close()
}

// Metrics 获取执行指标
func (e *Engine) Metrics() *utils.Metrics {
	return e.metrics
}

// engineResult spi.Result 的客户端实现
type engineResult struct {
	status   spi.Status
	nrows    int
	rows     []spi.Row
	cols     []string
	types    []spi.TypeID
	hasMeta  bool
	hasTypes bool
}

func (r *engineResult) Status() spi.Status { return r.status }
func (r *engineResult) NRows() int         { return r.nrows }
func (r *engineResult) Rows() []spi.Row    { return r.rows }

func (r *engineResult) ColNames() ([]string, bool) {
	if !r.hasMeta {
		return nil, false
	}
	return r.cols, true
}

func (r *engineResult) ColTypes() ([]spi.TypeID, bool) {
	if !r.hasMeta || !r.hasTypes {
		return nil, false
	}
	return r.types, true
}

// engineRow 单行结果, 记录自身的列序
type engineRow struct {
	cols []string
	vals map[string]interface{}
}

func (r *engineRow) Columns() []string { return r.cols }

func (r *engineRow) Get(name string) (interface{}, bool) {
	v, ok := r.vals[name]
	return v, ok
}
