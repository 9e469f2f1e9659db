package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sql5300/internal/value"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := NewCatalog(t.TempDir())
	require.NoError(t, cat.Open())
	return cat
}

func TestOpenBootstrapsSchemaTables(t *testing.T) {
	cat := newTestCatalog(t)

	for _, name := range []string{TablesTable, ColumnsTable, IndicesTable} {
		rel, err := cat.GetTable(name)
		require.NoError(t, err)
		require.Equal(t, name, rel.Name())
	}

	cols, _, err := cat.GetColumns(TablesTable)
	require.NoError(t, err)
	require.Equal(t, []string{"table_name"}, cols)
}

func TestGetTableUnknownFails(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.GetTable("goober")
	require.ErrorIs(t, err, ErrNoSuchTable)
}

func TestGetTableCreatesAndCachesUserTable(t *testing.T) {
	cat := newTestCatalog(t)

	_, err := cat.Tables().Insert(value.Row{"table_name": value.NewText("goober")})
	require.NoError(t, err)
	for _, col := range []string{"x", "y"} {
		_, err := cat.Columns().Insert(value.Row{
			"table_name":  value.NewText("goober"),
			"column_name": value.NewText(col),
			"data_type":   value.NewText("INT"),
		})
		require.NoError(t, err)
	}

	rel, err := cat.GetTable("goober")
	require.NoError(t, err)
	cols, attrs, err := cat.GetColumns("goober")
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, cols)
	require.Equal(t, []value.ColumnAttribute{{DataType: value.Int}, {DataType: value.Int}}, attrs)

	again, err := cat.GetTable("goober")
	require.NoError(t, err)
	require.Same(t, rel, again)
}

func TestIsSchemaTable(t *testing.T) {
	require.True(t, IsSchemaTable("_tables"))
	require.True(t, IsSchemaTable("_columns"))
	require.True(t, IsSchemaTable("_indices"))
	require.False(t, IsSchemaTable("goober"))
}
