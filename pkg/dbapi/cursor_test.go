package dbapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Connexions/plpydbapi/pkg/spi"
	"github.com/Connexions/plpydbapi/pkg/spi/spitest"
)

func newTestConn() (*spitest.Engine, *Connection) {
	engine := spitest.NewEngine()
	return engine, Connect(engine)
}

// threeRows 三行两列的查询结果
func threeRows() *spitest.Result {
	return spitest.NewResult(spi.StatusSelect).
		Columns("id", "name").
		Row(1, "alice").
		Row(2, "bob").
		Row(3, "carol")
}

func TestExecuteRewritesPlaceholders(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("insert into t values ($1, NULL, $2)",
		spitest.NewResult(spi.StatusInsert).SetNRows(1))

	cur := conn.Cursor()
	err := cur.Execute("insert into t values (%s, %s, %s)",
		[]interface{}{42, nil, "abc"})
	require.NoError(t, err)

	// 非空参数各得到一个占位符, NULL 直接写进语句文本
	require.Len(t, engine.Prepared, 1)
	assert.Equal(t, "insert into t values ($1, NULL, $2)", engine.Prepared[0].Query)
	assert.Equal(t, []string{"int", "text"}, engine.Prepared[0].ArgTypes)
	require.Len(t, engine.Executed, 1)
	assert.Equal(t, []interface{}{42, "abc"}, engine.Executed[0].Args)
	assert.Equal(t, 1, cur.Rowcount())
	assert.Nil(t, cur.Description())
}

func TestExecutePlaceholderEscape(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select '100%' where $1",
		spitest.NewResult(spi.StatusSelect).Columns("x").Row(true))

	cur := conn.Cursor()
	err := cur.Execute("select '100%%' where %s", []interface{}{true})
	require.NoError(t, err)
	assert.Equal(t, "select '100%' where $1", engine.Prepared[0].Query)
}

func TestExecutePlaceholderMismatch(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		params    []interface{}
	}{
		{"占位符多于参数", "select %s, %s", []interface{}{1}},
		{"参数多于占位符", "select %s", []interface{}{1, 2}},
		{"无法识别的标记", "select %d", []interface{}{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, conn := newTestConn()
			cur := conn.Cursor()
			err := cur.Execute(tt.operation, tt.params)
			require.Error(t, err)
			var dberr *Error
			assert.True(t, errors.As(err, &dberr))
			// 改写失败的语句不应到达引擎
			assert.Empty(t, engine.Prepared)
		})
	}
}

func TestFetchoneSequence(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from t", threeRows())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from t", nil))
	assert.Equal(t, 3, cur.Rowcount())

	want := [][]interface{}{{1, "alice"}, {2, "bob"}, {3, "carol"}}
	for i, expected := range want {
		row, err := cur.Fetchone()
		require.NoError(t, err)
		assert.Equal(t, expected, row, "第 %d 行", i)
	}

	// 取尽后返回 nil 行, 再次调用仍然是 nil
	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.Nil(t, row)
	row, err = cur.Fetchone()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFetchallThenFetchone(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from t", threeRows())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from t", nil))

	rows, err := cur.Fetchall()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.Nil(t, row)

	rows, err = cur.Fetchall()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchmany(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from t", threeRows())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from t", nil))

	// 未显式给出批大小时使用 Arraysize (默认 1)
	rows, err := cur.Fetchmany(0)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{1, "alice"}}, rows)

	rows, err = cur.Fetchmany(2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// 位置越过末尾后, 后续提取得到空结果而不是错误
	rows, err = cur.Fetchmany(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFetchBeforeExecute(t *testing.T) {
	_, conn := newTestConn()
	cur := conn.Cursor()

	_, err := cur.Fetchone()
	assert.Error(t, err)
	_, err = cur.Fetchmany(2)
	assert.Error(t, err)
	_, err = cur.Fetchall()
	assert.Error(t, err)
	assert.Error(t, cur.Scroll(0, "absolute"))
	assert.Equal(t, -1, cur.Rownumber())
}

func TestScroll(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from t", threeRows())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from t", nil))

	_, err := cur.Fetchmany(2)
	require.NoError(t, err)

	// 绝对回到起点后能重新取到完整结果
	require.NoError(t, cur.Scroll(0, "absolute"))
	rows, err := cur.Fetchall()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	require.NoError(t, cur.Scroll(-2, "relative"))
	assert.Equal(t, 1, cur.Rownumber())

	err = cur.Scroll(1, "sideways")
	assert.ErrorIs(t, err, ErrScrollMode)

	err = cur.Scroll(-5, "relative")
	assert.ErrorIs(t, err, ErrScrollRange)
	err = cur.Scroll(4, "absolute")
	assert.ErrorIs(t, err, ErrScrollRange)
}

func TestExecuteUtility(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("create table t (id int)",
		spitest.NewResult(spi.StatusUtility))

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("create table t (id int)", nil))

	// utility 语句不报告行数, 也不产生结果集
	assert.Equal(t, -1, cur.Rowcount())
	_, err := cur.Fetchall()
	assert.Error(t, err)
}

func TestExecuteDML(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("update t set x = $1",
		spitest.NewResult(spi.StatusUpdate).SetNRows(3))

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("update t set x = %s", []interface{}{7}))
	assert.Equal(t, 3, cur.Rowcount())
	_, err := cur.Fetchone()
	assert.Error(t, err)
}

func TestExecuteReturning(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("insert into t (id) values ($1) returning id",
		spitest.NewResult(spi.StatusInsertReturning).Columns("id").Row(1))

	cur := conn.Cursor()
	err := cur.Execute("insert into t (id) values (%s) returning id",
		[]interface{}{1})
	require.NoError(t, err)

	row, err := cur.Fetchone()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 1, row[0])
}

func TestExecuteBooleanScenario(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select $1 is true",
		spitest.NewResult(spi.StatusSelect).
			Columns("?column?").
			Row(true))

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select %s is true", []interface{}{true}))

	assert.Equal(t, []string{"bool"}, engine.Prepared[0].ArgTypes)
	require.Len(t, cur.Description(), 1)
	assert.Equal(t, 1, cur.Rowcount())

	row, err := cur.Fetchone()
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.Equal(t, true, row[0])
}

func TestExecuteMany(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("insert into t (id) values ($1)",
		spitest.NewResult(spi.StatusInsert).SetNRows(1))

	cur := conn.Cursor()
	err := cur.ExecuteMany("insert into t (id) values (%s)",
		[][]interface{}{{1}, {2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, 3, cur.Rowcount())
	assert.Len(t, engine.Executed, 3)
	// 每组参数单独预编译, 不复用执行计划
	assert.Len(t, engine.Prepared, 3)
}

func TestExecuteManyUnknownRowcount(t *testing.T) {
	engine, conn := newTestConn()
	// 第一次是 utility (-1), 之后不再累加
	engine.On("drop table if exists t",
		spitest.NewResult(spi.StatusUtility),
		spitest.NewResult(spi.StatusUtility))

	cur := conn.Cursor()
	err := cur.ExecuteMany("drop table if exists t",
		[][]interface{}{nil, nil})
	require.NoError(t, err)
	assert.Equal(t, -1, cur.Rowcount())
}

func TestStaleResultCleared(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from t", threeRows())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from t", nil))
	_, err := cur.Fetchone()
	require.NoError(t, err)

	hostErr := errors.New("relation does not exist")
	engine.FailNextExecute(hostErr)
	err = cur.Execute("select * from missing", nil)
	require.Error(t, err)

	// 宿主错误被包装为 *Error 并保留原因
	var dberr *Error
	require.True(t, errors.As(err, &dberr))
	assert.ErrorIs(t, err, hostErr)

	// 上一次的结果不跨越执行泄漏
	_, err = cur.Fetchall()
	assert.Error(t, err)
	assert.Equal(t, -1, cur.Rowcount())
	assert.Nil(t, cur.Description())
}

func TestClosedCursorRejectsExecute(t *testing.T) {
	_, conn := newTestConn()
	cur := conn.Cursor()
	cur.Close()

	err := cur.Execute("select 1", nil)
	assert.Error(t, err)

	// 游标重复关闭是幂等的
	cur.Close()
}

func TestClosedConnectionPropagates(t *testing.T) {
	_, conn := newTestConn()
	cur := conn.Cursor()
	require.NoError(t, conn.Close())

	err := cur.Execute("select 1", nil)
	assert.Error(t, err)
}

func TestRowKeyOrderFallback(t *testing.T) {
	engine, conn := newTestConn()
	// 老版本宿主: 没有查询级列元数据, 行按自身键顺序物化
	engine.On("select a, b from t",
		spitest.NewResult(spi.StatusSelect).
			Columns("a", "b").
			RowOrder("b", "a").
			NoMeta().
			Row("va", "vb"))

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select a, b from t", nil))

	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"vb", "va"}, row)

	desc := cur.Description()
	require.Len(t, desc, 2)
	assert.Equal(t, "b", desc[0].Name)
	assert.Equal(t, "a", desc[1].Name)
	assert.Equal(t, TypeUnknown, desc[0].Type)
}

func TestEmptyResultWithoutMeta(t *testing.T) {
	engine, conn := newTestConn()
	engine.On("select * from empty",
		spitest.NewResult(spi.StatusSelect).NoMeta())

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("select * from empty", nil))

	// 零行又没有元数据时只剩一个未知占位描述符
	desc := cur.Description()
	require.Len(t, desc, 1)
	assert.Equal(t, "", desc[0].Name)
	assert.Equal(t, TypeUnknown, desc[0].Type)

	rows, err := cur.Fetchall()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSetSizesAreNoops(t *testing.T) {
	_, conn := newTestConn()
	cur := conn.Cursor()
	cur.SetInputSizes([]int{1, 2})
	cur.SetOutputSize(1024, 0)
}
