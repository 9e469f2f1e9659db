// Package catalog implements the self-describing schema (spec §4.4):
// _tables, _columns, _indices, with bootstrap self-reference and an
// in-process cache so the same relation/index object is returned across
// calls within one process lifetime.
package catalog

import (
	"sort"

	"github.com/pkg/errors"

	"sql5300/internal/btree"
	"sql5300/internal/heap"
	"sql5300/internal/recordfile"
	"sql5300/internal/value"
)

// The three reserved schema relations (spec §3).
const (
	TablesTable  = "_tables"
	ColumnsTable = "_columns"
	IndicesTable = "_indices"
)

// ErrNoSuchTable and ErrNoSuchIndex are returned by GetTable/GetIndex
// lookups that find no matching catalog rows.
var (
	ErrNoSuchTable = errors.New("catalog: no such table")
	ErrNoSuchIndex = errors.New("catalog: no such index")
)

// IsSchemaTable reports whether name is one of the three reserved catalog
// relations, which DROP TABLE must refuse to touch (spec §4.8).
func IsSchemaTable(name string) bool {
	return name == TablesTable || name == ColumnsTable || name == IndicesTable
}

type schemaDef struct {
	name    string
	columns []string
	types   []value.DataType
}

var schemaDefs = []schemaDef{
	{TablesTable, []string{"table_name"}, []value.DataType{value.Text}},
	{ColumnsTable,
		[]string{"table_name", "column_name", "data_type"},
		[]value.DataType{value.Text, value.Text, value.Text}},
	{IndicesTable,
		[]string{"table_name", "index_name", "seq_in_index", "column_name", "index_type", "is_unique"},
		[]value.DataType{value.Text, value.Text, value.Int, value.Text, value.Text, value.Bool}},
}

// Catalog is the explicit, once-per-process cache spec §9's design notes
// call for in place of process-wide mutable singletons: callers thread one
// Catalog value through the executor instead of reaching for globals.
type Catalog struct {
	dir     string
	tables  map[string]heap.DbRelation
	indices map[string]map[string]*btree.BTreeIndex
}

// NewCatalog returns a Catalog rooted at dir. Open must be called before
// any other method.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:     dir,
		tables:  make(map[string]heap.DbRelation),
		indices: make(map[string]map[string]*btree.BTreeIndex),
	}
}

// Open bootstraps the three schema tables: creates their heap files if
// missing, and inserts their own self-describing rows into _tables/_columns
// if those rows are absent.
func (c *Catalog) Open() error {
	for _, def := range schemaDefs {
		rf := recordfile.NewKVFile(c.dir, def.name+".db")
		attrs := make([]value.ColumnAttribute, len(def.types))
		for i, t := range def.types {
			attrs[i] = value.ColumnAttribute{DataType: t}
		}
		table := heap.NewHeapTable(def.name, def.columns, attrs, rf)
		if err := table.CreateIfNotExists(); err != nil {
			return errors.Wrapf(err, "catalog: bootstrap %s", def.name)
		}
		c.tables[def.name] = table
	}
	for _, def := range schemaDefs {
		if err := c.ensureSchemaRows(def); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) ensureSchemaRows(def schemaDef) error {
	exists, err := c.tableRowExists(def.name)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := c.tables[TablesTable].Insert(value.Row{"table_name": value.NewText(def.name)}); err != nil {
			return errors.Wrapf(err, "catalog: bootstrap %s row", def.name)
		}
	}
	existing, _, err := c.GetColumns(def.name)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for i, col := range def.columns {
		_, err := c.tables[ColumnsTable].Insert(value.Row{
			"table_name":  value.NewText(def.name),
			"column_name": value.NewText(col),
			"data_type":   value.NewText(def.types[i].String()),
		})
		if err != nil {
			return errors.Wrapf(err, "catalog: bootstrap %s.%s column row", def.name, col)
		}
	}
	return nil
}

func (c *Catalog) tableRowExists(name string) (bool, error) {
	tables := c.tables[TablesTable]
	handles, err := tables.Select()
	if err != nil {
		return false, err
	}
	for _, h := range handles {
		row, err := tables.Project(h, nil)
		if err != nil {
			return false, err
		}
		if row["table_name"].S == name {
			return true, nil
		}
	}
	return false, nil
}

// Tables returns the _tables heap relation itself, for the executor to
// insert/delete catalog rows directly during DDL.
func (c *Catalog) Tables() heap.DbRelation { return c.tables[TablesTable] }

// Columns returns the _columns heap relation.
func (c *Catalog) Columns() heap.DbRelation { return c.tables[ColumnsTable] }

// Indices returns the _indices heap relation.
func (c *Catalog) Indices() heap.DbRelation { return c.tables[IndicesTable] }

// GetTable returns the cached relation for name; on a cache miss it reads
// the column definitions from _columns, constructs a HeapTable, opens it
// (creating its file if none exists yet, as for a table CREATE TABLE has
// just catalogued), caches it, and returns it (spec §4.4). The three schema tables are always
// already cached by Open, so this never re-derives their columns from
// _columns — breaking the catalog-cycle spec §9 calls out.
func (c *Catalog) GetTable(name string) (heap.DbRelation, error) {
	if rel, ok := c.tables[name]; ok {
		return rel, nil
	}
	cols, attrs, err := c.GetColumns(name)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.Wrapf(ErrNoSuchTable, "%s", name)
	}
	rf := recordfile.NewKVFile(c.dir, name+".db")
	table := heap.NewHeapTable(name, cols, attrs, rf)
	if err := table.CreateIfNotExists(); err != nil {
		return nil, errors.Wrapf(err, "catalog: open %s", name)
	}
	c.tables[name] = table
	return table, nil
}

// GetColumns walks _columns for table_name == name, returning column names
// and attributes in insertion order.
func (c *Catalog) GetColumns(name string) ([]string, []value.ColumnAttribute, error) {
	columns := c.tables[ColumnsTable]
	handles, err := columns.Select()
	if err != nil {
		return nil, nil, err
	}
	var cols []string
	var attrs []value.ColumnAttribute
	for _, h := range handles {
		row, err := columns.Project(h, nil)
		if err != nil {
			return nil, nil, err
		}
		if row["table_name"].S != name {
			continue
		}
		dt, err := value.ParseDataType(row["data_type"].S)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "catalog: %s.%s", name, row["column_name"].S)
		}
		cols = append(cols, row["column_name"].S)
		attrs = append(attrs, value.ColumnAttribute{DataType: dt})
	}
	return cols, attrs, nil
}

// GetIndex returns the cached BTreeIndex for (table, index); on a cache
// miss it reads the index's key columns and uniqueness from _indices,
// builds the key profile from the table's own columns, opens the index
// file, caches it, and returns it.
func (c *Catalog) GetIndex(table, index string) (*btree.BTreeIndex, error) {
	if m, ok := c.indices[table]; ok {
		if idx, ok := m[index]; ok {
			return idx, nil
		}
	}
	keyColumns, unique, err := c.indexDef(table, index)
	if err != nil {
		return nil, err
	}
	cols, attrs, err := c.GetColumns(table)
	if err != nil {
		return nil, err
	}
	typeOf := make(map[string]value.DataType, len(cols))
	for i, col := range cols {
		typeOf[col] = attrs[i].DataType
	}
	profile := make([]value.DataType, len(keyColumns))
	for i, col := range keyColumns {
		dt, ok := typeOf[col]
		if !ok {
			return nil, errors.Errorf("catalog: index %s.%s: unknown column %s", table, index, col)
		}
		profile[i] = dt
	}
	rf := recordfile.NewKVFile(c.dir, table+"-"+index)
	idx := btree.NewBTreeIndex(table+"-"+index, keyColumns, profile, unique, rf)
	if err := idx.Open(); err != nil {
		return nil, errors.Wrapf(err, "catalog: open index %s.%s", table, index)
	}
	if c.indices[table] == nil {
		c.indices[table] = make(map[string]*btree.BTreeIndex)
	}
	c.indices[table][index] = idx
	return idx, nil
}

// NewIndex constructs (but does not open or create) a BTreeIndex for
// (table, index) given its key columns and uniqueness, for use by CREATE
// INDEX before any _indices rows exist to read back. The caller is
// responsible for calling Create and then caching it via CacheIndex.
func (c *Catalog) NewIndex(table, index string, keyColumns []string, unique bool) (*btree.BTreeIndex, error) {
	cols, attrs, err := c.GetColumns(table)
	if err != nil {
		return nil, err
	}
	typeOf := make(map[string]value.DataType, len(cols))
	for i, col := range cols {
		typeOf[col] = attrs[i].DataType
	}
	profile := make([]value.DataType, len(keyColumns))
	for i, col := range keyColumns {
		dt, ok := typeOf[col]
		if !ok {
			return nil, errors.Errorf("catalog: index %s.%s: unknown column %s", table, index, col)
		}
		profile[i] = dt
	}
	rf := recordfile.NewKVFile(c.dir, table+"-"+index)
	return btree.NewBTreeIndex(table+"-"+index, keyColumns, profile, unique, rf), nil
}

// CacheIndex registers idx as the resolved index for (table, index), for
// use right after CREATE INDEX builds it with NewIndex.
func (c *Catalog) CacheIndex(table, index string, idx *btree.BTreeIndex) {
	if c.indices[table] == nil {
		c.indices[table] = make(map[string]*btree.BTreeIndex)
	}
	c.indices[table][index] = idx
}

// GetIndexNames deduplicates over the _indices rows for table.
func (c *Catalog) GetIndexNames(table string) ([]string, error) {
	indices := c.tables[IndicesTable]
	handles, err := indices.Select()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, h := range handles {
		row, err := indices.Project(h, nil)
		if err != nil {
			return nil, err
		}
		if row["table_name"].S != table {
			continue
		}
		name := row["index_name"].S
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Catalog) indexDef(table, index string) ([]string, bool, error) {
	type entry struct {
		seq    int32
		column string
		unique bool
	}
	indices := c.tables[IndicesTable]
	handles, err := indices.Select()
	if err != nil {
		return nil, false, err
	}
	var entries []entry
	for _, h := range handles {
		row, err := indices.Project(h, nil)
		if err != nil {
			return nil, false, err
		}
		if row["table_name"].S != table || row["index_name"].S != index {
			continue
		}
		entries = append(entries, entry{
			seq:    row["seq_in_index"].I,
			column: row["column_name"].S,
			unique: row["is_unique"].B,
		})
	}
	if len(entries) == 0 {
		return nil, false, errors.Wrapf(ErrNoSuchIndex, "%s on %s", index, table)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	cols := make([]string, len(entries))
	for i, e := range entries {
		cols[i] = e.column
	}
	return cols, entries[0].unique, nil
}

// InvalidateTable drops name from the relation cache, called after DROP
// TABLE removes its heap file.
func (c *Catalog) InvalidateTable(name string) {
	delete(c.tables, name)
}

// InvalidateIndex drops (table, index) from the index cache, called after
// DROP INDEX removes its file.
func (c *Catalog) InvalidateIndex(table, index string) {
	if m, ok := c.indices[table]; ok {
		delete(m, index)
	}
}
