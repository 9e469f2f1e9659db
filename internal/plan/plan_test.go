package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sql5300/internal/catalog"
	"sql5300/internal/heap"
	"sql5300/internal/value"
)

func newPlanTestCatalog(t *testing.T) (*catalog.Catalog, heap.DbRelation) {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.NewCatalog(dir)
	require.NoError(t, cat.Open())

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
	return cat, rel
}

func seedRows(t *testing.T, rel heap.DbRelation, n int) {
	t.Helper()
	table, ok := rel.(*heap.HeapTable)
	require.True(t, ok)
	for i := 0; i < n; i++ {
		_, err := table.Insert(value.Row{"x": value.NewInt(int32(i)), "y": value.NewInt(int32(i * 10))})
		require.NoError(t, err)
	}
}

func TestTableScanPipelineReturnsAllHandles(t *testing.T) {
	_, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 3)

	scan := &TableScan{Relation: rel}
	_, handles, err := scan.Pipeline()
	require.NoError(t, err)
	require.Len(t, handles, 3)
}

func TestSelectFiltersByEquality(t *testing.T) {
	_, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 5)

	sel := &Select{Where: value.Row{"x": value.NewInt(2)}, Child: &TableScan{Relation: rel}}
	rows, err := sel.Evaluate()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, value.NewInt(20), rows[0]["y"])
}

func TestProjectRestrictsColumns(t *testing.T) {
	_, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 2)

	proj := &Project{Columns: []string{"x"}, Child: &TableScan{Relation: rel}}
	rows, err := proj.Evaluate()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Len(t, row, 1)
		_, ok := row["x"]
		require.True(t, ok)
	}
}

func TestOptimizeRewritesFullyCoveredSelectToIndexLookup(t *testing.T) {
	cat, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 4)

	idx, err := cat.NewIndex("goober", "fx", []string{"x", "y"}, true)
	require.NoError(t, err)
	require.NoError(t, idx.Create(rel))
	cat.CacheIndex("goober", "fx", idx)

	sel := &Select{Where: value.Row{"x": value.NewInt(2), "y": value.NewInt(20)}, Child: &TableScan{Relation: rel}}
	optimized, err := Optimize(sel, cat, "goober")
	require.NoError(t, err)

	lookup, ok := optimized.(*IndexLookup)
	require.True(t, ok, "expected a fully-covered equality select to become an IndexLookup")

	rows, err := lookup.Evaluate()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestOptimizeLeavesResidualSelectWhenIndexIsPrefixOnly(t *testing.T) {
	cat, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 4)

	idx, err := cat.NewIndex("goober", "fx", []string{"x"}, true)
	require.NoError(t, err)
	require.NoError(t, idx.Create(rel))
	cat.CacheIndex("goober", "fx", idx)

	sel := &Select{Where: value.Row{"x": value.NewInt(2), "y": value.NewInt(999)}, Child: &TableScan{Relation: rel}}
	optimized, err := Optimize(sel, cat, "goober")
	require.NoError(t, err)

	residual, ok := optimized.(*Select)
	require.True(t, ok, "expected a residual Select wrapping the IndexLookup")
	_, ok = residual.Child.(*IndexLookup)
	require.True(t, ok)

	rows, err := residual.Evaluate()
	require.NoError(t, err)
	require.Empty(t, rows, "y=999 never matches, even though x=2 is an index hit")
}

func TestOptimizeIsIdentityWithoutMatchingIndex(t *testing.T) {
	cat, rel := newPlanTestCatalog(t)
	seedRows(t, rel, 2)

	sel := &Select{Where: value.Row{"x": value.NewInt(1)}, Child: &TableScan{Relation: rel}}
	optimized, err := Optimize(sel, cat, "goober")
	require.NoError(t, err)
	require.Same(t, sel, optimized)
}
