package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sql5300/internal/page"
	"sql5300/internal/recordfile"
	"sql5300/internal/value"
)

func newTestTable(t *testing.T, name string, columns []string, attrs []value.ColumnAttribute) *HeapTable {
	t.Helper()
	dir := t.TempDir()
	rf := recordfile.NewKVFile(dir, filepath.Join(name+".db"))
	table := NewHeapTable(name, columns, attrs, rf)
	require.NoError(t, table.Create())
	return table
}

func TestInsertSelectProjectRoundTrip(t *testing.T) {
	table := newTestTable(t, "t", []string{"a", "b"}, []value.ColumnAttribute{{DataType: value.Int}, {DataType: value.Text}})

	h, err := table.Insert(value.Row{"a": value.NewInt(12), "b": value.NewText("Hello!")})
	require.NoError(t, err)

	handles, err := table.Select()
	require.NoError(t, err)
	require.Equal(t, []page.Handle{h}, handles)

	row, err := table.Project(h, nil)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(12), row["a"])
	require.Equal(t, value.NewText("Hello!"), row["b"])
}

func TestDelRemovesFromSelect(t *testing.T) {
	table := newTestTable(t, "t", []string{"a"}, []value.ColumnAttribute{{DataType: value.Int}})

	h, err := table.Insert(value.Row{"a": value.NewInt(1)})
	require.NoError(t, err)
	require.NoError(t, table.Del(h))

	handles, err := table.Select()
	require.NoError(t, err)
	require.Empty(t, handles)
}

func TestInsertSpillsToNewPage(t *testing.T) {
	table := newTestTable(t, "t", []string{"a", "b"}, []value.ColumnAttribute{{DataType: value.Int}, {DataType: value.Text}})

	padding := make([]byte, 200)
	for i := range padding {
		padding[i] = 'x'
	}
	var last page.Handle
	for i := 0; i < 30; i++ {
		h, err := table.Insert(value.Row{"a": value.NewInt(int32(i)), "b": value.NewText(string(padding))})
		require.NoError(t, err)
		last = h
	}
	require.Greater(t, int(last.Block), 1)

	handles, err := table.Select()
	require.NoError(t, err)
	require.Len(t, handles, 30)
}

func TestProjectRestrictsColumns(t *testing.T) {
	table := newTestTable(t, "t", []string{"a", "b"}, []value.ColumnAttribute{{DataType: value.Int}, {DataType: value.Text}})

	h, err := table.Insert(value.Row{"a": value.NewInt(5), "b": value.NewText("x")})
	require.NoError(t, err)

	row, err := table.Project(h, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, value.Row{"a": value.NewInt(5)}, row)
}
