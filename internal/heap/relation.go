// Package heap implements the row-level relation contract (HeapFile,
// HeapTable) layered on top of the page store (spec §4.2, §4.3).
package heap

import (
	"sql5300/internal/page"
	"sql5300/internal/value"
)

// DbRelation is the capability trait spec.md's design notes call for in
// place of dynamic dispatch over DbBlock/DbIndex/DbRelation: this system has
// exactly one concrete implementation, HeapTable, so a single struct
// satisfying this interface is sufficient — no variant dispatch needed.
type DbRelation interface {
	Name() string
	Columns() ([]string, []value.ColumnAttribute)

	Create() error
	CreateIfNotExists() error
	Open() error
	Close() error
	Drop() error

	Insert(row value.Row) (page.Handle, error)
	Select() ([]page.Handle, error)
	Project(h page.Handle, cols []string) (value.Row, error)
	Del(h page.Handle) error
}
