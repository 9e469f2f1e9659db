package sqlparse

import (
	"reflect"
	"testing"

	"sql5300/internal/sqlast"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected *sqlast.Select
	}{
		{
			name: "star with where",
			sql:  `select * from goober where x=1`,
			expected: &sqlast.Select{
				Columns: []string{"*"},
				Table:   "goober",
				Where: &sqlast.EqExpr{
					Column: sqlast.ColumnRef{Column: "x"},
					Value:  sqlast.Literal{Kind: sqlast.IntLiteral, I: 1},
				},
			},
		},
		{
			name: "column list, no where",
			sql:  `select a, b from t`,
			expected: &sqlast.Select{
				Columns: []string{"a", "b"},
				Table:   "t",
			},
		},
		{
			name: "conjunction",
			sql:  `select a from t where x=1 and y=2`,
			expected: &sqlast.Select{
				Columns: []string{"a"},
				Table:   "t",
				Where: &sqlast.AndExpr{
					Left:  &sqlast.EqExpr{Column: sqlast.ColumnRef{Column: "x"}, Value: sqlast.Literal{Kind: sqlast.IntLiteral, I: 1}},
					Right: &sqlast.EqExpr{Column: sqlast.ColumnRef{Column: "y"}, Value: sqlast.Literal{Kind: sqlast.IntLiteral, I: 2}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.sql)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.sql, err)
			}
			if !reflect.DeepEqual(stmt, tt.expected) {
				t.Errorf("got %#v, want %#v", stmt, tt.expected)
			}
		})
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse(`insert into t (a, b) values (12, "Hello!")`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ins, ok := stmt.(*sqlast.Insert)
	if !ok {
		t.Fatalf("got %T, want *sqlast.Insert", stmt)
	}
	want := &sqlast.Insert{
		Table:   "t",
		Columns: []string{"a", "b"},
		Values: []sqlast.Literal{
			{Kind: sqlast.IntLiteral, I: 12},
			{Kind: sqlast.StringLiteral, S: "Hello!"},
		},
	}
	if !reflect.DeepEqual(ins, want) {
		t.Errorf("got %#v, want %#v", ins, want)
	}
}

func TestParseInsertNoColumnList(t *testing.T) {
	stmt, err := Parse(`insert into t values (1, 2)`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ins := stmt.(*sqlast.Insert)
	if ins.Columns != nil {
		t.Errorf("expected nil Columns, got %v", ins.Columns)
	}
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse(`delete from t where a=12`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := &sqlast.Delete{
		Table: "t",
		Where: &sqlast.EqExpr{Column: sqlast.ColumnRef{Column: "a"}, Value: sqlast.Literal{Kind: sqlast.IntLiteral, I: 12}},
	}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("got %#v, want %#v", stmt, want)
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse(`create table goober (x int, y int, z text)`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := &sqlast.CreateTable{
		Table: "goober",
		Columns: []sqlast.ColumnDef{
			{Name: "x", Type: "INT"},
			{Name: "y", Type: "INT"},
			{Name: "z", Type: "TEXT"},
		},
	}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("got %#v, want %#v", stmt, want)
	}
}

func TestParseCreateTableIfNotExists(t *testing.T) {
	stmt, err := Parse(`create table if not exists goober (x int)`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := &sqlast.CreateTable{
		Table:       "goober",
		Columns:     []sqlast.ColumnDef{{Name: "x", Type: "INT"}},
		IfNotExists: true,
	}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("got %#v, want %#v", stmt, want)
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse(`create index fx on goober (x, y)`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := &sqlast.CreateIndex{Index: "fx", Table: "goober", Columns: []string{"x", "y"}}
	if !reflect.DeepEqual(stmt, want) {
		t.Errorf("got %#v, want %#v", stmt, want)
	}
}

func TestParseDropTableAndIndex(t *testing.T) {
	stmt, err := Parse(`drop table goober`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !reflect.DeepEqual(stmt, &sqlast.DropTable{Table: "goober"}) {
		t.Errorf("got %#v", stmt)
	}

	stmt, err = Parse(`drop index fx on goober`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !reflect.DeepEqual(stmt, &sqlast.DropIndex{Index: "fx", Table: "goober"}) {
		t.Errorf("got %#v", stmt)
	}
}

func TestParseShow(t *testing.T) {
	if stmt, err := Parse(`show tables`); err != nil || !reflect.DeepEqual(stmt, &sqlast.ShowTables{}) {
		t.Errorf("show tables: got %#v, err %v", stmt, err)
	}
	if stmt, err := Parse(`show columns from goober`); err != nil || !reflect.DeepEqual(stmt, &sqlast.ShowColumns{Table: "goober"}) {
		t.Errorf("show columns: got %#v, err %v", stmt, err)
	}
	if stmt, err := Parse(`show index from goober`); err != nil || !reflect.DeepEqual(stmt, &sqlast.ShowIndex{Table: "goober"}) {
		t.Errorf("show index: got %#v, err %v", stmt, err)
	}
}

func TestParseBadSyntaxReturnsError(t *testing.T) {
	if _, err := Parse(`select from`); err == nil {
		t.Error("expected an error for malformed select, got nil")
	}
}
