package heap

import (
	"errors"
	"fmt"

	"sql5300/internal/page"
	"sql5300/internal/recordfile"
	"sql5300/internal/value"
)

// HeapTable implements DbRelation over a HeapFile (spec §4.3): row-level
// insert/select/project/delete in terms of the underlying slotted pages.
type HeapTable struct {
	name    string
	columns []string
	attrs   []value.ColumnAttribute
	file    *HeapFile
}

// NewHeapTable builds a table named name with the given column
// names/attributes (in declared order), backed by rf.
func NewHeapTable(name string, columns []string, attrs []value.ColumnAttribute, rf recordfile.RecordFile) *HeapTable {
	return &HeapTable{
		name:    name,
		columns: columns,
		attrs:   attrs,
		file:    NewHeapFile(name, rf),
	}
}

func (t *HeapTable) Name() string { return t.name }

func (t *HeapTable) Columns() ([]string, []value.ColumnAttribute) {
	return t.columns, t.attrs
}

func (t *HeapTable) Create() error { return t.file.Create() }

// CreateIfNotExists opens the table if its file already exists, else
// creates it fresh.
func (t *HeapTable) CreateIfNotExists() error {
	if err := t.file.Open(); err == nil {
		return nil
	}
	return t.file.Create()
}

func (t *HeapTable) Open() error  { return t.file.Open() }
func (t *HeapTable) Close() error { return t.file.Close() }
func (t *HeapTable) Drop() error  { return t.file.Drop() }

// Insert validates row against the declared schema, marshals it, and
// attempts to add it to the last page; on NoRoom it allocates a fresh page
// and retries once.
func (t *HeapTable) Insert(row value.Row) (page.Handle, error) {
	if err := t.validate(row); err != nil {
		return page.Handle{}, err
	}
	data, err := value.Marshal(row, t.columns, t.attrs)
	if err != nil {
		return page.Handle{}, fmt.Errorf("heap: marshal row for %s: %w", t.name, err)
	}

	sp, err := t.file.Get(t.file.Last())
	if err != nil {
		return page.Handle{}, err
	}
	rid, err := sp.Add(data)
	if err != nil {
		if !errors.Is(err, page.ErrNoRoom) {
			return page.Handle{}, err
		}
		sp, err = t.file.GetNew()
		if err != nil {
			return page.Handle{}, err
		}
		rid, err = sp.Add(data)
		if err != nil {
			return page.Handle{}, fmt.Errorf("heap: row too large for %s: %w", t.name, err)
		}
	}
	if err := t.file.Put(sp); err != nil {
		return page.Handle{}, err
	}
	return page.Handle{Block: sp.Block(), Record: rid}, nil
}

func (t *HeapTable) validate(row value.Row) error {
	for i, col := range t.columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		if v.Type != t.attrs[i].DataType {
			return fmt.Errorf("heap: column %s expects %s, got %s", col, t.attrs[i].DataType, v.Type)
		}
	}
	return nil
}

// Select returns every handle in the table, in block-ascending then
// record-ascending order (spec §4.3: "naive full scan").
func (t *HeapTable) Select() ([]page.Handle, error) {
	var handles []page.Handle
	for _, b := range t.file.BlockIDs() {
		sp, err := t.file.Get(b)
		if err != nil {
			return nil, err
		}
		for _, rid := range sp.Ids() {
			handles = append(handles, page.Handle{Block: b, Record: rid})
		}
	}
	return handles, nil
}

// Project fetches the record at h and unmarshals it, restricting to cols
// if non-empty.
func (t *HeapTable) Project(h page.Handle, cols []string) (value.Row, error) {
	sp, err := t.file.Get(h.Block)
	if err != nil {
		return nil, err
	}
	data, ok := sp.Get(h.Record)
	if !ok {
		return nil, fmt.Errorf("heap: %w: handle %s in %s", page.ErrDeleted, h, t.name)
	}
	row, err := value.Unmarshal(data, t.columns, t.attrs)
	if err != nil {
		return nil, fmt.Errorf("heap: unmarshal row %s in %s: %w", h, t.name, err)
	}
	return row.Project(cols), nil
}

// Del tombstones the record at h and writes the page back.
func (t *HeapTable) Del(h page.Handle) error {
	sp, err := t.file.Get(h.Block)
	if err != nil {
		return err
	}
	if err := sp.Del(h.Record); err != nil {
		return fmt.Errorf("heap: delete handle %s in %s: %w", h, t.name, err)
	}
	return t.file.Put(sp)
}

var _ DbRelation = (*HeapTable)(nil)
