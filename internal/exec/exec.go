// Package exec implements SQLExec (spec §4.8): statement dispatch, index
// maintenance, the WHERE-to-dictionary reduction (§4.7), and the error-kind
// propagation rules of §7.
package exec

import (
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"sql5300/internal/catalog"
	"sql5300/internal/heap"
	"sql5300/internal/page"
	"sql5300/internal/plan"
	"sql5300/internal/sqlast"
	"sql5300/internal/value"
)

// Executor dispatches parsed statements against a Catalog, logging
// structured progress the way the teacher threads a manager object through
// its server type (SPEC_FULL §3.1).
type Executor struct {
	cat *catalog.Catalog
	log *logrus.Logger
}

// New returns an Executor over cat, logging through log.
func New(cat *catalog.Catalog, log *logrus.Logger) *Executor {
	return &Executor{cat: cat, log: log}
}

// Execute is SQLExec's public entrypoint: it branches on the statement kind
// and returns a QueryResult, or an error carrying an ErrorKind (via Kind).
func (ex *Executor) Execute(stmt sqlast.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *sqlast.CreateTable:
		return ex.createTable(s)
	case *sqlast.CreateIndex:
		return ex.createIndex(s)
	case *sqlast.DropTable:
		return ex.dropTable(s)
	case *sqlast.DropIndex:
		return ex.dropIndex(s)
	case *sqlast.ShowTables:
		return ex.showTables()
	case *sqlast.ShowColumns:
		return ex.showColumns(s)
	case *sqlast.ShowIndex:
		return ex.showIndex(s)
	case *sqlast.Insert:
		return ex.insert(s)
	case *sqlast.Delete:
		return ex.delete(s)
	case *sqlast.Select:
		return ex.selectStmt(s)
	default:
		return nil, newExecError("Unsupported statement")
	}
}

// -------- CREATE TABLE --------

func (ex *Executor) createTable(s *sqlast.CreateTable) (*QueryResult, error) {
	if catalog.IsSchemaTable(s.Table) {
		return nil, newExecError("Can't create a schema table")
	}

	if s.IfNotExists {
		if _, err := ex.cat.GetTable(s.Table); err == nil {
			return &QueryResult{Message: "created " + s.Table}, nil
		} else if !errors.Is(err, catalog.ErrNoSuchTable) {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	cols := make([]string, len(s.Columns))
	attrs := make([]value.ColumnAttribute, len(s.Columns))
	for i, c := range s.Columns {
		dt, err := value.ParseDataType(c.Type)
		if err != nil {
			return nil, newExecError("unsupported column type %s", c.Type)
		}
		cols[i] = c.Name
		attrs[i] = value.ColumnAttribute{DataType: dt}
	}

	tablesRel := ex.cat.Tables()
	tH, err := tablesRel.Insert(value.Row{"table_name": value.NewText(s.Table)})
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	columnsRel := ex.cat.Columns()
	var colHandles []page.Handle
	rollback := func(cause error) (*QueryResult, error) {
		for _, h := range colHandles {
			if derr := columnsRel.Del(h); derr != nil {
				ex.log.WithError(derr).Warn("compensating delete of _columns row failed")
			}
		}
		if derr := tablesRel.Del(tH); derr != nil {
			ex.log.WithError(derr).Warn("compensating delete of _tables row failed")
		}
		return nil, toExecError(wrapStorageError(cause))
	}

	for _, c := range s.Columns {
		h, err := columnsRel.Insert(value.Row{
			"table_name":  value.NewText(s.Table),
			"column_name": value.NewText(c.Name),
			"data_type":   value.NewText(c.Type),
		})
		if err != nil {
			return rollback(err)
		}
		colHandles = append(colHandles, h)
	}

	table, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return rollback(err)
	}
	ht, ok := table.(*heap.HeapTable)
	if !ok {
		return rollback(newExecError("internal: resolved relation is not a HeapTable"))
	}
	if s.IfNotExists {
		err = ht.CreateIfNotExists()
	} else {
		err = ht.Create()
	}
	if err != nil {
		ex.cat.InvalidateTable(s.Table)
		return rollback(err)
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "op": "create_table"}).Info("created table")
	return &QueryResult{Message: "created " + s.Table}, nil
}

// -------- CREATE INDEX --------

func (ex *Executor) createIndex(s *sqlast.CreateIndex) (*QueryResult, error) {
	indicesRel := ex.cat.Indices()
	var handles []page.Handle
	rollback := func(cause error) (*QueryResult, error) {
		for _, h := range handles {
			if derr := indicesRel.Del(h); derr != nil {
				ex.log.WithError(derr).Warn("compensating delete of _indices row failed")
			}
		}
		return nil, toExecError(wrapStorageError(cause))
	}

	for i, col := range s.Columns {
		h, err := indicesRel.Insert(value.Row{
			"table_name":   value.NewText(s.Table),
			"index_name":   value.NewText(s.Index),
			"seq_in_index": value.NewInt(int32(i + 1)),
			"column_name":  value.NewText(col),
			"index_type":   value.NewText("BTREE"),
			"is_unique":    value.NewBool(true),
		})
		if err != nil {
			return rollback(err)
		}
		handles = append(handles, h)
	}

	idx, err := ex.cat.NewIndex(s.Table, s.Index, s.Columns, true)
	if err != nil {
		return rollback(err)
	}
	rel, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return rollback(err)
	}
	if err := idx.Create(rel); err != nil {
		return rollback(err)
	}
	ex.cat.CacheIndex(s.Table, s.Index, idx)

	ex.log.WithFields(logrus.Fields{"table": s.Table, "index": s.Index, "op": "create_index"}).Info("created index")
	return &QueryResult{Message: "created index " + s.Index}, nil
}

// -------- DROP TABLE / DROP INDEX --------

func (ex *Executor) dropTable(s *sqlast.DropTable) (*QueryResult, error) {
	if catalog.IsSchemaTable(s.Table) {
		return nil, newExecError("Can't drop a schema table")
	}

	names, err := ex.cat.GetIndexNames(s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	for _, name := range names {
		if _, err := ex.dropIndex(&sqlast.DropIndex{Index: name, Table: s.Table}); err != nil {
			return nil, err
		}
	}

	columnsRel := ex.cat.Columns()
	colHandles, err := matchingHandles(columnsRel, "table_name", s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	for _, h := range colHandles {
		if err := columnsRel.Del(h); err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	table, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return nil, newExecError("table does not exist: %s", s.Table)
	}
	if err := table.Drop(); err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	ex.cat.InvalidateTable(s.Table)

	tablesRel := ex.cat.Tables()
	tHandles, err := matchingHandles(tablesRel, "table_name", s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	for _, h := range tHandles {
		if err := tablesRel.Del(h); err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "op": "drop_table"}).Info("dropped table")
	return &QueryResult{Message: "dropped " + s.Table}, nil
}

func (ex *Executor) dropIndex(s *sqlast.DropIndex) (*QueryResult, error) {
	idx, err := ex.cat.GetIndex(s.Table, s.Index)
	if err != nil {
		return nil, newExecError("no such index %s on %s", s.Index, s.Table)
	}
	if err := idx.Drop(); err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	ex.cat.InvalidateIndex(s.Table, s.Index)

	indicesRel := ex.cat.Indices()
	handles, err := matchingIndexHandles(indicesRel, s.Table, s.Index)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	for _, h := range handles {
		if err := indicesRel.Del(h); err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "index": s.Index, "op": "drop_index"}).Info("dropped index")
	return &QueryResult{Message: "dropped index " + s.Index}, nil
}

// -------- SHOW --------

func (ex *Executor) showTables() (*QueryResult, error) {
	rows, err := allRows(ex.cat.Tables())
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	var kept []value.Row
	for _, row := range rows {
		if !catalog.IsSchemaTable(row["table_name"].S) {
			kept = append(kept, row)
		}
	}
	return &QueryResult{
		Message: "successfully returned " + strconv.Itoa(len(kept)) + " rows",
		Columns: []string{"table_name"},
		Rows:    kept,
	}, nil
}

func (ex *Executor) showColumns(s *sqlast.ShowColumns) (*QueryResult, error) {
	rows, err := allRows(ex.cat.Columns())
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	var kept []value.Row
	for _, row := range rows {
		if row["table_name"].S == s.Table {
			kept = append(kept, row)
		}
	}
	return &QueryResult{
		Message: "successfully returned " + strconv.Itoa(len(kept)) + " rows",
		Columns: []string{"table_name", "column_name", "data_type"},
		Rows:    kept,
	}, nil
}

func (ex *Executor) showIndex(s *sqlast.ShowIndex) (*QueryResult, error) {
	rows, err := allRows(ex.cat.Indices())
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	var kept []value.Row
	for _, row := range rows {
		if row["table_name"].S == s.Table {
			kept = append(kept, row)
		}
	}
	return &QueryResult{
		Message: "successfully returned " + strconv.Itoa(len(kept)) + " rows",
		Columns: []string{"table_name", "index_name", "seq_in_index", "column_name", "index_type", "is_unique"},
		Rows:    kept,
	}, nil
}

// -------- INSERT --------

func (ex *Executor) insert(s *sqlast.Insert) (*QueryResult, error) {
	table, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return nil, newExecError("table does not exist: %s", s.Table)
	}
	declCols, _ := table.Columns()

	cols := s.Columns
	if cols == nil {
		cols = declCols
	}
	if len(cols) != len(s.Values) {
		return nil, newExecError("column count does not match value count")
	}

	row := make(value.Row, len(cols))
	for i, col := range cols {
		row[col] = literalValue(s.Values[i])
	}

	h, err := table.Insert(row)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	names, err := ex.cat.GetIndexNames(s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}
	for _, name := range names {
		idx, err := ex.cat.GetIndex(s.Table, name)
		if err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
		if err := idx.Insert(row, h); err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "op": "insert"}).Info("inserted row")
	return &QueryResult{Message: "successfully inserted 1 row into " + s.Table}, nil
}

// -------- DELETE --------

func (ex *Executor) delete(s *sqlast.Delete) (*QueryResult, error) {
	table, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return nil, newExecError("table does not exist: %s", s.Table)
	}

	dict, err := whereDict(s.Where, s.Table)
	if err != nil {
		return nil, err
	}

	var p plan.Plan = &plan.TableScan{Relation: table}
	if len(dict) > 0 {
		p = &plan.Select{Where: dict, Child: p}
	}
	p, err = plan.Optimize(p, ex.cat, s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	_, handles, err := p.Pipeline()
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	names, err := ex.cat.GetIndexNames(s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	for _, h := range handles {
		for _, name := range names {
			idx, err := ex.cat.GetIndex(s.Table, name)
			if err != nil {
				return nil, toExecError(wrapStorageError(err))
			}
			if err := idx.Del(h); err != nil {
				return nil, toExecError(wrapStorageError(err))
			}
		}
		if err := table.Del(h); err != nil {
			return nil, toExecError(wrapStorageError(err))
		}
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "op": "delete", "rows": len(handles)}).Info("deleted rows")
	return &QueryResult{
		Message: "successfully deleted " + strconv.Itoa(len(handles)) + " rows from " + s.Table + " and " + strconv.Itoa(len(names)) + " indices",
	}, nil
}

// -------- SELECT --------

func (ex *Executor) selectStmt(s *sqlast.Select) (*QueryResult, error) {
	table, err := ex.cat.GetTable(s.Table)
	if err != nil {
		return nil, newExecError("table does not exist: %s", s.Table)
	}

	dict, err := whereDict(s.Where, s.Table)
	if err != nil {
		return nil, err
	}

	var p plan.Plan = &plan.TableScan{Relation: table}
	if len(dict) > 0 {
		p = &plan.Select{Where: dict, Child: p}
	}
	p, err = plan.Optimize(p, ex.cat, s.Table)
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	cols := s.Columns
	star := len(cols) == 1 && cols[0] == "*"
	if !star {
		p = &plan.Project{Columns: cols, Child: p}
	}

	rows, err := p.Evaluate()
	if err != nil {
		return nil, toExecError(wrapStorageError(err))
	}

	outCols := cols
	if star {
		outCols, _ = table.Columns()
	}

	ex.log.WithFields(logrus.Fields{"table": s.Table, "op": "select", "rows": len(rows)}).Info("selected rows")
	return &QueryResult{
		Message: "successfully returned " + strconv.Itoa(len(rows)) + " rows",
		Columns: outCols,
		Rows:    rows,
	}, nil
}

// -------- shared helpers --------

func allRows(rel heap.DbRelation) ([]value.Row, error) {
	handles, err := rel.Select()
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

func matchingHandles(rel heap.DbRelation, col, want string) ([]page.Handle, error) {
	handles, err := rel.Select()
	if err != nil {
		return nil, err
	}
	var kept []page.Handle
	for _, h := range handles {
		row, err := rel.Project(h, []string{col})
		if err != nil {
			return nil, err
		}
		if row[col].S == want {
			kept = append(kept, h)
		}
	}
	return kept, nil
}

func matchingIndexHandles(rel heap.DbRelation, table, index string) ([]page.Handle, error) {
	handles, err := rel.Select()
	if err != nil {
		return nil, err
	}
	var kept []page.Handle
	for _, h := range handles {
		row, err := rel.Project(h, []string{"table_name", "index_name"})
		if err != nil {
			return nil, err
		}
		if row["table_name"].S == table && row["index_name"].S == index {
			kept = append(kept, h)
		}
	}
	return kept, nil
}
