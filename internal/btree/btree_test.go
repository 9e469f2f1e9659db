package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sql5300/internal/heap"
	"sql5300/internal/page"
	"sql5300/internal/recordfile"
	"sql5300/internal/value"
)

func newTestTable(t *testing.T) *heap.HeapTable {
	t.Helper()
	dir := t.TempDir()
	rf := recordfile.NewKVFile(dir, "goober.db")
	table := heap.NewHeapTable("goober",
		[]string{"x", "y"},
		[]value.ColumnAttribute{{DataType: value.Int}, {DataType: value.Int}},
		rf)
	require.NoError(t, table.Create())
	return table
}

func newTestIndex(t *testing.T, name string) *BTreeIndex {
	t.Helper()
	dir := t.TempDir()
	rf := recordfile.NewKVFile(dir, name)
	return NewBTreeIndex(name, []string{"x", "y"}, []value.DataType{value.Int, value.Int}, true, rf)
}

func TestCreateRebuildsFromExistingRows(t *testing.T) {
	table := newTestTable(t)
	h1, err := table.Insert(value.Row{"x": value.NewInt(1), "y": value.NewInt(1)})
	require.NoError(t, err)
	_, err = table.Insert(value.Row{"x": value.NewInt(2), "y": value.NewInt(2)})
	require.NoError(t, err)

	idx := newTestIndex(t, "goober-fx")
	require.NoError(t, idx.Create(table))

	handles, err := idx.Lookup(value.Row{"x": value.NewInt(1), "y": value.NewInt(1)})
	require.NoError(t, err)
	require.Equal(t, []page.Handle{h1}, handles)
}

func TestLookupMissingKeyReturnsEmpty(t *testing.T) {
	table := newTestTable(t)
	idx := newTestIndex(t, "goober-fx")
	require.NoError(t, idx.Create(table))

	handles, err := idx.Lookup(value.Row{"x": value.NewInt(9), "y": value.NewInt(9)})
	require.NoError(t, err)
	require.Empty(t, handles)
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	table := newTestTable(t)
	idx := newTestIndex(t, "goober-fx")
	require.NoError(t, idx.Create(table))

	h, err := table.Insert(value.Row{"x": value.NewInt(5), "y": value.NewInt(5)})
	require.NoError(t, err)
	require.NoError(t, idx.Insert(value.Row{"x": value.NewInt(5), "y": value.NewInt(5)}, h))

	err = idx.Insert(value.Row{"x": value.NewInt(5), "y": value.NewInt(5)}, h)
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestInsertSplitsAcrossManyLeaves(t *testing.T) {
	table := newTestTable(t)
	idx := newTestIndex(t, "goober-fx")
	require.NoError(t, idx.Create(table))

	const n = 500
	for i := 0; i < n; i++ {
		h, err := table.Insert(value.Row{"x": value.NewInt(int32(i)), "y": value.NewInt(int32(i))})
		require.NoError(t, err)
		require.NoError(t, idx.Insert(value.Row{"x": value.NewInt(int32(i)), "y": value.NewInt(int32(i))}, h))
	}
	require.Greater(t, idx.stat.Height, 1, "expected the tree to grow past a single leaf")

	for i := 0; i < n; i += 37 {
		handles, err := idx.Lookup(value.Row{"x": value.NewInt(int32(i)), "y": value.NewInt(int32(i))})
		require.NoError(t, err)
		require.Len(t, handles, 1)
	}
}

func TestRangeAndDelAreUnimplemented(t *testing.T) {
	table := newTestTable(t)
	idx := newTestIndex(t, "goober-fx")
	require.NoError(t, idx.Create(table))

	_, err := idx.Range(value.Row{}, value.Row{})
	require.ErrorIs(t, err, ErrUnimplemented)

	err = idx.Del(page.Handle{Block: 1, Record: 1})
	require.ErrorIs(t, err, ErrUnimplemented)
}
