package integration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Connexions/plpydbapi/internal/db"
	"github.com/Connexions/plpydbapi/internal/utils"
	"github.com/Connexions/plpydbapi/pkg/dbapi"
)

func setupEngine(t *testing.T) *db.Engine {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("未设置 TEST_DB_DSN, 跳过集成测试")
	}

	engine, err := db.OpenDSN(dsn, utils.NewNopLogger())
	require.NoError(t, err, "连接数据库失败")
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestConnectionLifecycle(t *testing.T) {
	engine := setupEngine(t)
	conn := dbapi.Connect(engine)

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("SELECT 1 AS one", nil), "查询执行失败")

	row, err := cur.Fetchone()
	require.NoError(t, err)
	require.Len(t, row, 1)

	require.NoError(t, conn.Commit(), "提交失败")
	require.NoError(t, conn.Close(), "关闭连接失败")
	assert.Error(t, conn.Close(), "重复关闭应报错")
}

func TestPlaceholderRoundTrip(t *testing.T) {
	engine := setupEngine(t)
	conn := dbapi.Connect(engine)
	defer conn.Close()

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("CREATE TEMP TABLE roundtrip (id int, name text, flag bool)", nil))
	require.NoError(t, cur.Execute(
		"INSERT INTO roundtrip VALUES (%s, %s, %s)",
		[]interface{}{int64(1), "alice", true}))
	assert.Equal(t, 1, cur.Rowcount())

	require.NoError(t, cur.Execute("SELECT name, flag FROM roundtrip WHERE id = %s", []interface{}{int64(1)}))
	rows, err := cur.Fetchall()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0][0])

	desc := cur.Description()
	require.Len(t, desc, 2)
	assert.Equal(t, "name", desc[0].Name)
	assert.Equal(t, "flag", desc[1].Name)

	require.NoError(t, conn.Commit())
}

func TestRollbackDiscardsScope(t *testing.T) {
	engine := setupEngine(t)
	conn := dbapi.Connect(engine)
	defer conn.Close()

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("CREATE TABLE IF NOT EXISTS scope_test (id int)", nil))
	require.NoError(t, conn.Commit())
	defer func() {
		cur := conn.Cursor()
		cur.Execute("DROP TABLE IF EXISTS scope_test", nil)
		conn.Commit()
	}()

	require.NoError(t, cur.Execute("INSERT INTO scope_test VALUES (%s)", []interface{}{int64(1)}))
	require.NoError(t, conn.Rollback(), "回滚失败")

	require.NoError(t, cur.Execute("SELECT count(*) FROM scope_test", nil))
	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.EqualValues(t, int64(0), row[0], "回滚后不应有数据")
	require.NoError(t, conn.Commit())
}

func TestExecuteManyBatch(t *testing.T) {
	engine := setupEngine(t)
	conn := dbapi.Connect(engine)
	defer conn.Close()

	cur := conn.Cursor()
	require.NoError(t, cur.Execute("CREATE TEMP TABLE batch_test (id int, name text)", nil))

	err := cur.ExecuteMany("INSERT INTO batch_test VALUES (%s, %s)", [][]interface{}{
		{int64(1), "a"},
		{int64(2), "b"},
		{int64(3), "c"},
	})
	require.NoError(t, err, "批量执行失败")
	assert.Equal(t, 3, cur.Rowcount(), "批量插入行数应累计")

	require.NoError(t, cur.Execute("SELECT count(*) FROM batch_test", nil))
	row, err := cur.Fetchone()
	require.NoError(t, err)
	assert.EqualValues(t, int64(3), row[0])
	require.NoError(t, conn.Commit())
}
