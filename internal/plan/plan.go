// Package plan implements the small relational algebra spec §4.6 calls
// EvalPlan: TableScan, Select, Project, IndexLookup, composed as a tree with
// pipeline/evaluate/optimize operations.
package plan

import (
	"sql5300/internal/btree"
	"sql5300/internal/catalog"
	"sql5300/internal/heap"
	"sql5300/internal/page"
	"sql5300/internal/value"
)

// Plan is one node of the algebra.
type Plan interface {
	// Pipeline yields the underlying relation and the handle set this plan
	// selects (for DELETE).
	Pipeline() (heap.DbRelation, []page.Handle, error)
	// Evaluate materializes rows, projecting through the underlying
	// relation (for SELECT).
	Evaluate() ([]value.Row, error)
}

// TableScan is a leaf yielding every handle in a relation.
type TableScan struct {
	Relation heap.DbRelation
}

func (p *TableScan) Pipeline() (heap.DbRelation, []page.Handle, error) {
	handles, err := p.Relation.Select()
	return p.Relation, handles, err
}

func (p *TableScan) Evaluate() ([]value.Row, error) {
	return evaluate(p)
}

// Select is an equality-conjunction filter over its child (spec §4.7: the
// executor has already reduced a WHERE clause to this dictionary).
type Select struct {
	Where value.Row
	Child Plan
}

func (p *Select) Pipeline() (heap.DbRelation, []page.Handle, error) {
	rel, handles, err := p.Child.Pipeline()
	if err != nil {
		return nil, nil, err
	}
	var kept []page.Handle
	for _, h := range handles {
		row, err := rel.Project(h, nil)
		if err != nil {
			return nil, nil, err
		}
		if rowMatches(row, p.Where) {
			kept = append(kept, h)
		}
	}
	return rel, kept, nil
}

func (p *Select) Evaluate() ([]value.Row, error) {
	return evaluate(p)
}

// Project restricts rows to a column list.
type Project struct {
	Columns []string
	Child   Plan
}

func (p *Project) Pipeline() (heap.DbRelation, []page.Handle, error) {
	return p.Child.Pipeline()
}

func (p *Project) Evaluate() ([]value.Row, error) {
	rel, handles, err := p.Child.Pipeline()
	if err != nil {
		return nil, err
	}
	rows := make([]value.Row, 0, len(handles))
	for _, h := range handles {
		row, err := rel.Project(h, p.Columns)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// IndexLookup is a leaf that probes a BTree instead of scanning the heap
// file directly.
type IndexLookup struct {
	Relation heap.DbRelation
	Index    *btree.BTreeIndex
	Key      value.Row
}

func (p *IndexLookup) Pipeline() (heap.DbRelation, []page.Handle, error) {
	handles, err := p.Index.Lookup(p.Key)
	return p.Relation, handles, err
}

func (p *IndexLookup) Evaluate() ([]value.Row, error) {
	return evaluate(p)
}

// evaluate is the Pipeline-then-project-every-handle shared by every plan
// node except Project, which does its own restricted projection.
func evaluate(p Plan) ([]value.Row, error) {
	rel, handles, err := p.Pipeline()
	if err != nil {
		return nil, err
	}
	rows := make([]value.Row, 0, len(handles))
	for _, h := range handles {
		row, err := rel.Project(h, nil)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowMatches(row, where value.Row) bool {
	for col, want := range where {
		got, ok := row[col]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// Optimize walks the tree and, for a Select directly over a TableScan whose
// relation has an index covering (a prefix of) the predicate's columns,
// replaces it with an IndexLookup plus a residual Select for any leftover
// predicates (spec §4.6). If no index matches, optimize is the identity.
func Optimize(p Plan, cat *catalog.Catalog, relationName string) (Plan, error) {
	sel, ok := p.(*Select)
	if !ok {
		return p, nil
	}
	scan, ok := sel.Child.(*TableScan)
	if !ok {
		return p, nil
	}

	names, err := cat.GetIndexNames(relationName)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		idx, err := cat.GetIndex(relationName, name)
		if err != nil {
			return nil, err
		}
		keyColumns := idx.KeyColumns()
		if !coversPrefix(keyColumns, sel.Where) {
			continue
		}

		key := make(value.Row, len(keyColumns))
		residual := sel.Where.Clone()
		for _, col := range keyColumns {
			key[col] = sel.Where[col]
			delete(residual, col)
		}
		lookup := &IndexLookup{Relation: scan.Relation, Index: idx, Key: key}
		if len(residual) == 0 {
			return lookup, nil
		}
		return &Select{Where: residual, Child: lookup}, nil
	}
	return p, nil
}

// coversPrefix reports whether every column the index is keyed on has an
// equality predicate in where.
func coversPrefix(keyColumns []string, where value.Row) bool {
	for _, col := range keyColumns {
		if _, ok := where[col]; !ok {
			return false
		}
	}
	return true
}
