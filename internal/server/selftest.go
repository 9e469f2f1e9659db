package server

import (
	"fmt"

	"sql5300/internal/sqlparse"
	"sql5300/internal/value"
)

// step is one check of the fixed self-test sequence run by the REPL's
// `test` command: a name to report and a closure that returns an error
// describing what went wrong, or nil on success.
type step struct {
	name string
	run  func(e *Environment) error
}

// execSQL parses and executes sql against e, failing the step on either a
// parse or an execute error.
func execSQL(e *Environment, sql string) (*stepResult, error) {
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("%s: parse error: %w", sql, err)
	}
	res, err := e.ex.Execute(stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sql, err)
	}
	return &stepResult{message: res.Message, rows: res.Rows}, nil
}

// stepResult is execSQL's return value, trimmed to what the checks below
// need: the statement's message and any rows it returned.
type stepResult struct {
	message string
	rows    []value.Row
}

func wantMessage(sql, want string) step {
	return step{
		name: sql,
		run: func(e *Environment) error {
			res, err := execSQL(e, sql)
			if err != nil {
				return err
			}
			if res.message != want {
				return fmt.Errorf("%s: got %q, want %q", sql, res.message, want)
			}
			return nil
		},
	}
}

// seedSteps covers spec §8(a)-(f), with (d) run before (c), executed in
// order against the environment RunSelfTest is called on (for the REPL's
// `test` command, the REPL's own database directory). This generalizes the original driver's storage/btree-only
// smoke test to exercise the executor end-to-end (SPEC_FULL §5).
var seedSteps = []step{
	// (a) create/drop
	wantMessage(`create table _test_create_drop (a int, b text)`, "created _test_create_drop"),
	wantMessage(`drop table _test_create_drop`, "dropped _test_create_drop"),
	wantMessage(`create table t (a int, b text)`, "created t"),
	wantMessage(`insert into t values (12, "Hello!")`, "successfully inserted 1 row into t"),

	// (b) insert/select
	{
		name: `select * from t`,
		run: func(e *Environment) error {
			res, err := execSQL(e, `select * from t`)
			if err != nil {
				return err
			}
			if len(res.rows) != 1 {
				return fmt.Errorf("select * from t: got %d rows, want 1", len(res.rows))
			}
			row := res.rows[0]
			if row["a"].I != 12 || row["b"].S != "Hello!" {
				return fmt.Errorf("select * from t: got %v, want {a:12 b:Hello!}", row)
			}
			return nil
		},
	},

	// (d) WHERE equality
	{
		name: `select a from t where b="Hello!"`,
		run: func(e *Environment) error {
			res, err := execSQL(e, `select a from t where b="Hello!"`)
			if err != nil {
				return err
			}
			if len(res.rows) != 1 || res.rows[0]["a"].I != 12 {
				return fmt.Errorf(`select a from t where b="Hello!": got %v, want [{a:12}]`, res.rows)
			}
			return nil
		},
	},
	{
		name: `select a from t where b="Nope"`,
		run: func(e *Environment) error {
			res, err := execSQL(e, `select a from t where b="Nope"`)
			if err != nil {
				return err
			}
			if len(res.rows) != 0 {
				return fmt.Errorf(`select a from t where b="Nope": got %v, want []`, res.rows)
			}
			return nil
		},
	},

	wantMessage(`create table goober (x int, y int)`, "created goober"),
	wantMessage(`create index fx on goober (x, y)`, "created index fx"),
	wantMessage(`insert into goober values (1, 1)`, "successfully inserted 1 row into goober"),
	wantMessage(`insert into goober values (2, 2)`, "successfully inserted 1 row into goober"),

	// (c) index maintenance
	{
		name: `fx.lookup({x:1,y:1})`,
		run: func(e *Environment) error {
			idx, err := e.cat.GetIndex("goober", "fx")
			if err != nil {
				return fmt.Errorf("fx.lookup: %w", err)
			}
			handles, err := idx.Lookup(value.Row{"x": value.NewInt(1), "y": value.NewInt(1)})
			if err != nil {
				return fmt.Errorf("fx.lookup: %w", err)
			}
			if len(handles) != 1 {
				return fmt.Errorf("fx.lookup({x:1,y:1}): got %d handles, want 1", len(handles))
			}
			rel, err := e.cat.GetTable("goober")
			if err != nil {
				return fmt.Errorf("fx.lookup: %w", err)
			}
			row, err := rel.Project(handles[0], nil)
			if err != nil {
				return fmt.Errorf("fx.lookup: %w", err)
			}
			if row["x"].I != 1 || row["y"].I != 1 {
				return fmt.Errorf("fx.lookup({x:1,y:1}): handle points at %v, want {x:1 y:1}", row)
			}
			return nil
		},
	},
	wantMessage(`drop index fx on goober`, "dropped index fx"),
	{
		name: `_indices no longer lists fx`,
		run: func(e *Environment) error {
			names, err := e.cat.GetIndexNames("goober")
			if err != nil {
				return fmt.Errorf("_indices after drop index: %w", err)
			}
			for _, n := range names {
				if n == "fx" {
					return fmt.Errorf("_indices after drop index: fx is still listed")
				}
			}
			return nil
		},
	},

	// (e) DELETE with WHERE
	wantMessage(`delete from t where a=12`, "successfully deleted 1 rows from t and 0 indices"),
	{
		name: `select * from t (after delete)`,
		run: func(e *Environment) error {
			res, err := execSQL(e, `select * from t`)
			if err != nil {
				return err
			}
			if len(res.rows) != 0 {
				return fmt.Errorf("select * from t after delete: got %v, want []", res.rows)
			}
			return nil
		},
	},

	// (f) schema-table protection
	{
		name: `drop table _tables`,
		run: func(e *Environment) error {
			stmt, err := sqlparse.Parse(`drop table _tables`)
			if err != nil {
				return fmt.Errorf("drop table _tables: parse error: %w", err)
			}
			if _, err := e.ex.Execute(stmt); err == nil {
				return fmt.Errorf("drop table _tables: expected an ExecError, got success")
			}
			if _, err := e.cat.GetTable("_tables"); err != nil {
				return fmt.Errorf("drop table _tables: _tables catalog row was removed: %w", err)
			}
			return nil
		},
	},

	// SHOW TABLES excludes the three schema tables.
	{
		name: `show tables excludes schema tables`,
		run: func(e *Environment) error {
			res, err := execSQL(e, `show tables`)
			if err != nil {
				return err
			}
			for _, row := range res.rows {
				if row["table_name"].S == "_tables" || row["table_name"].S == "_columns" || row["table_name"].S == "_indices" {
					return fmt.Errorf("show tables leaked a schema table: %v", res.rows)
				}
			}
			return nil
		},
	},
}

// RunSelfTest executes seedSteps in order, printing "ok" per step to report
// and a final pass/fail line, stopping at the first failure.
func (e *Environment) RunSelfTest(report func(string)) bool {
	for _, st := range seedSteps {
		if err := st.run(e); err != nil {
			report("FAIL: " + err.Error())
			report("test failed")
			return false
		}
		report("ok: " + st.name)
	}
	report("test passed")
	return true
}
