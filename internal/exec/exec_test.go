package exec

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"sql5300/internal/catalog"
	"sql5300/internal/sqlast"
	"sql5300/internal/sqlparse"
	"sql5300/internal/value"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cat := catalog.NewCatalog(t.TempDir())
	require.NoError(t, cat.Open())
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return New(cat, log)
}

func run(t *testing.T, ex *Executor, sql string) *QueryResult {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err, "parsing %q", sql)
	res, err := ex.Execute(stmt)
	require.NoError(t, err, "executing %q", sql)
	return res
}

// TestCreateDrop is seed scenario (a).
func TestCreateDrop(t *testing.T) {
	ex := newTestExecutor(t)

	res := run(t, ex, `create table _test_create_drop (a int, b text)`)
	require.Equal(t, "created _test_create_drop", res.Message)

	// the table exists until dropped: re-query _tables directly to see it.
	tables, err := ex.cat.Tables().Select()
	require.NoError(t, err)
	require.NotEmpty(t, tables)

	res = run(t, ex, `drop table _test_create_drop`)
	require.Equal(t, "dropped _test_create_drop", res.Message)

	show := run(t, ex, `show tables`)
	names := columnValues(show, "table_name")
	require.NotContains(t, names, "_test_create_drop")
}

// TestInsertSelect is seed scenario (b).
func TestInsertSelect(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table t (a int, b text)`)
	run(t, ex, `insert into t values (12, "Hello!")`)

	res := run(t, ex, `select * from t`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int32(12), res.Rows[0]["a"].I)
	require.Equal(t, "Hello!", res.Rows[0]["b"].S)
}

// TestIndexMaintenance is seed scenario (c).
func TestIndexMaintenance(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table goober (x int, y int)`)
	run(t, ex, `create index fx on goober (x, y)`)
	run(t, ex, `insert into goober values (1, 1)`)
	run(t, ex, `insert into goober values (2, 2)`)

	idx, err := ex.cat.GetIndex("goober", "fx")
	require.NoError(t, err)
	handles, err := idx.Lookup(value.Row{"x": value.NewInt(1), "y": value.NewInt(1)})
	require.NoError(t, err)
	require.Len(t, handles, 1)

	res := run(t, ex, `drop index fx on goober`)
	require.Equal(t, "dropped index fx", res.Message)

	names, err := ex.cat.GetIndexNames("goober")
	require.NoError(t, err)
	require.Empty(t, names)
}

// TestWhereEquality is seed scenario (d).
func TestWhereEquality(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table t (a int, b text)`)
	run(t, ex, `insert into t values (12, "Hello!")`)

	res := run(t, ex, `select a from t where b="Hello!"`)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int32(12), res.Rows[0]["a"].I)

	res = run(t, ex, `select a from t where b="nope"`)
	require.Empty(t, res.Rows)
}

// TestDeleteWithWhere is seed scenario (e).
func TestDeleteWithWhere(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table t (a int, b text)`)
	run(t, ex, `insert into t values (12, "Hello!")`)

	res := run(t, ex, `delete from t where a=12`)
	require.Equal(t, "successfully deleted 1 rows from t and 0 indices", res.Message)

	res = run(t, ex, `select * from t`)
	require.Empty(t, res.Rows)
}

// TestDropSchemaTableFails is seed scenario (f).
func TestDropSchemaTableFails(t *testing.T) {
	ex := newTestExecutor(t)
	_, err := ex.Execute(mustParse(t, `drop table _tables`))
	require.Error(t, err)
	require.Equal(t, KindExecError, Kind(err))
}

func TestShowTablesExcludesSchemaTables(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table goober (x int)`)

	res := run(t, ex, `show tables`)
	names := columnValues(res, "table_name")
	require.Equal(t, []string{"goober"}, names)
}

func TestCreateTableIfNotExistsIsIdempotent(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `create table if not exists goober (x int)`)
	run(t, ex, `create table if not exists goober (x int)`)

	res := run(t, ex, `show tables`)
	require.Equal(t, []string{"goober"}, columnValues(res, "table_name"))
}

func mustParse(t *testing.T, sql string) sqlast.Statement {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func columnValues(res *QueryResult, col string) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, row[col].S)
	}
	return out
}
