package dbapi

import (
	"fmt"
	"strings"

	"github.com/Connexions/plpydbapi/pkg/spi"
)

// Cursor 语句执行器: 负责占位符改写、参数类型推断、执行,
// 以及把宿主结果物化成可分页的内存行缓冲。
// 一个游标同一时刻至多持有一个结果集; 游标不可跨 goroutine 共享
type Cursor struct {
	// Arraysize Fetchmany 未显式给出批大小时使用的默认值
	Arraysize int

	conn        *Connection
	closed      bool
	result      [][]interface{} // nil 表示尚无结果集
	rownumber   int
	rowcount    int
	description []Column
}

// Description 最近一次执行的结果列描述符, 没有结果集时为 nil
func (c *Cursor) Description() []Column { return c.description }

// Rowcount 最近一次执行的行数, 未知 (尚未执行或 utility 语句) 时为 -1
func (c *Cursor) Rowcount() int { return c.rowcount }

// Rownumber 结果集内的当前读取位置, 没有结果集时为 -1
func (c *Cursor) Rownumber() int {
	if c.result == nil {
		return -1
	}
	return c.rownumber
}

// Close 关闭游标。与连接不同, 重复关闭不是错误
func (c *Cursor) Close() {
	c.closed = true
}

func (c *Cursor) isClosed() bool {
	return c.closed || c.conn.closed
}

// Execute 改写并执行一条带 %s 占位符的语句。
//
// nil 参数不经过占位符: 宿主的类型推断无法为无类型 NULL 指定类型,
// 直接把字面 NULL 替换进语句文本。其余参数按顺序分配 $n 占位符,
// 并从运行时类型推断宿主列类型。
// 宿主执行失败时返回包装了原始错误的 *Error
func (c *Cursor) Execute(operation string, params []interface{}) error {
	if c.isClosed() {
		return newError("游标或其连接已关闭")
	}

	// 旧结果不跨越执行泄漏: 本次调用无论成败, 先清空缓冲
	c.result = nil
	c.rownumber = 0
	c.description = nil
	c.rowcount = -1

	if err := c.conn.ensureTransaction(); err != nil {
		return err
	}

	placeholders := make([]string, 0, len(params))
	argTypes := make([]string, 0, len(params))
	values := make([]interface{}, 0, len(params))
	for _, param := range params {
		if param == nil {
			placeholders = append(placeholders, "NULL")
			continue
		}
		pgType, value := inferParamType(param)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(values)+1))
		argTypes = append(argTypes, pgType)
		values = append(values, value)
	}

	query, err := substitutePlaceholders(operation, placeholders)
	if err != nil {
		return err
	}

	plan, err := c.conn.engine.Prepare(query, argTypes)
	if err != nil {
		return wrapError("语句预编译失败", err)
	}
	res, err := c.conn.engine.Execute(plan, values)
	if err != nil {
		return wrapError("语句执行失败", err)
	}

	c.conn.logger.Debugw("语句执行成功",
		"query", query,
		"params", len(values),
		"status", int(res.Status()))

	c.materialize(res)
	return nil
}

// ExecuteMany 对每组参数各执行一次同一条语句。
// 不同参数组可能推断出不同的类型, 因此不复用执行计划。
// 总行数是各次行数之和; 累计值一旦变成 -1 便不再累加,
// 出现过未知行数之后调用方不应依赖求和语义
func (c *Cursor) ExecuteMany(operation string, seq [][]interface{}) error {
	total := 0
	for _, params := range seq {
		if err := c.Execute(operation, params); err != nil {
			return err
		}
		if total != -1 {
			total += c.rowcount
		}
	}
	c.rowcount = total
	return nil
}

// Fetchone 取下一行并前进一个位置。
// 结果集取尽时返回 nil 行 (不是错误), 再次调用仍然返回 nil;
// 尚无结果集时返回错误
func (c *Cursor) Fetchone() ([]interface{}, error) {
	if c.result == nil {
		return nil, newError("没有可提取的结果集")
	}
	if c.rownumber >= len(c.result) {
		return nil, nil
	}
	row := c.result[c.rownumber]
	c.rownumber++
	return row, nil
}

// Fetchmany 取下一批行, size 不为正时使用 Arraysize。
// 返回区间 [当前位置, 当前位置+size) 与结果集的交集;
// 位置总是前进 size, 可能越过结果集末尾
func (c *Cursor) Fetchmany(size int) ([][]interface{}, error) {
	if c.result == nil {
		return nil, newError("没有可提取的结果集")
	}
	if size <= 0 {
		size = c.Arraysize
		if size <= 0 {
			size = 1
		}
	}
	start := min(c.rownumber, len(c.result))
	end := min(c.rownumber+size, len(c.result))
	c.rownumber += size
	return c.result[start:end], nil
}

// Fetchall 取出剩余全部行并把位置移到末尾
func (c *Cursor) Fetchall() ([][]interface{}, error) {
	if c.result == nil {
		return nil, newError("没有可提取的结果集")
	}
	start := min(c.rownumber, len(c.result))
	c.rownumber = len(c.result)
	return c.result[start:], nil
}

// Scroll 移动结果集内的读取位置。
// mode 为 relative (相对当前位置) 或 absolute (绝对位置);
// 目标位置为负或超出结果集长度时返回 ErrScrollRange
func (c *Cursor) Scroll(value int, mode string) error {
	if c.result == nil {
		return newError("没有可滚动的结果集")
	}
	var newpos int
	switch mode {
	case "relative":
		newpos = c.rownumber + value
	case "absolute":
		newpos = value
	default:
		return fmt.Errorf("%w: %q", ErrScrollMode, mode)
	}
	if newpos < 0 || newpos > len(c.result) {
		return fmt.Errorf("%w: %d", ErrScrollRange, newpos)
	}
	c.rownumber = newpos
	return nil
}

// SetInputSizes 按遗留 API 形状保留, 无操作
func (c *Cursor) SetInputSizes(sizes []int) {}

// SetOutputSize 按遗留 API 形状保留, 无操作
func (c *Cursor) SetOutputSize(size, column int) {}

// materialize 按状态归类宿主结果并填充行缓冲与描述符
func (c *Cursor) materialize(res spi.Result) {
	status := res.Status()
	if status.HasRows() {
		names, hasMeta := res.ColNames()
		rows := res.Rows()
		buf := make([][]interface{}, 0, len(rows))
		for _, row := range rows {
			order := names
			if !hasMeta {
				// 老版本宿主不提供查询级列顺序, 回退到行自身的键顺序。
				// 该顺序不保证与 SQL 声明的列顺序一致
				order = row.Columns()
			}
			tuple := make([]interface{}, len(order))
			for i, name := range order {
				tuple[i], _ = row.Get(name)
			}
			buf = append(buf, tuple)
		}
		c.result = buf
		c.rownumber = 0
		c.description = c.buildDescription(res, rows, hasMeta)
	}

	if status == spi.StatusUtility {
		c.rowcount = -1
	} else {
		c.rowcount = res.NRows()
	}
}

// buildDescription 构造列描述符, 按可用元数据逐级回退:
// 列名+类型 → 仅首行键名 → 单个未知占位描述符
func (c *Cursor) buildDescription(res spi.Result, rows []spi.Row, hasMeta bool) []Column {
	if hasMeta {
		names, _ := res.ColNames()
		oids, typed := res.ColTypes()
		desc := make([]Column, len(names))
		for i, name := range names {
			col := Column{Name: name}
			if typed && i < len(oids) {
				col.Type = c.conn.typemap.Lookup(oids[i])
			}
			desc[i] = col
		}
		return desc
	}
	if len(rows) > 0 {
		cols := rows[0].Columns()
		desc := make([]Column, len(cols))
		for i, name := range cols {
			desc[i] = Column{Name: name}
		}
		return desc
	}
	return []Column{{}}
}

// substitutePlaceholders 按位置把 %s 标记替换为对应的占位符文本,
// %% 转义为字面 %。标记数与参数数不一致是调用方错误
func substitutePlaceholders(operation string, placeholders []string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(operation))
	next := 0
	for i := 0; i < len(operation); i++ {
		ch := operation[i]
		if ch != '%' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(operation) && operation[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		if i+1 < len(operation) && operation[i+1] == 's' {
			if next >= len(placeholders) {
				return "", newError("占位符数量多于参数数量")
			}
			sb.WriteString(placeholders[next])
			next++
			i++
			continue
		}
		return "", newError("无法识别的占位符标记, 仅支持 %s")
	}
	if next != len(placeholders) {
		return "", newError("参数数量多于占位符数量")
	}
	return sb.String(), nil
}
