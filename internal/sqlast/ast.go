// Package sqlast defines the parser-contract AST (spec §6): the statement
// shapes internal/sqlparse produces and internal/exec consumes. Keeping this
// as its own package lets the two sides develop independently of each
// other's lexing/dispatch internals.
package sqlast

// Statement is the sum type over every top-level SQL form the engine
// accepts: Select, Insert, Delete, CreateTable, CreateIndex, DropTable,
// DropIndex, ShowTables, ShowColumns, ShowIndex.
type Statement interface {
	isStatement()
}

// ColumnDef is one column of a CREATE TABLE column list.
type ColumnDef struct {
	Name string
	Type string // "INT" or "TEXT", upper-cased by the parser
}

// CreateTable is `CREATE TABLE [IF NOT EXISTS] name (col type, ...)`.
type CreateTable struct {
	Table       string
	Columns     []ColumnDef
	IfNotExists bool
}

func (*CreateTable) isStatement() {}

// CreateIndex is `CREATE INDEX name ON table (col, ...)`.
type CreateIndex struct {
	Index   string
	Table   string
	Columns []string
}

func (*CreateIndex) isStatement() {}

// DropTable is `DROP TABLE name`.
type DropTable struct {
	Table string
}

func (*DropTable) isStatement() {}

// DropIndex is `DROP INDEX name ON table`.
type DropIndex struct {
	Index string
	Table string
}

func (*DropIndex) isStatement() {}

// ShowTables is `SHOW TABLES`.
type ShowTables struct{}

func (*ShowTables) isStatement() {}

// ShowColumns is `SHOW COLUMNS FROM table`.
type ShowColumns struct {
	Table string
}

func (*ShowColumns) isStatement() {}

// ShowIndex is `SHOW INDEX FROM table`.
type ShowIndex struct {
	Table string
}

func (*ShowIndex) isStatement() {}

// Insert is `INSERT INTO table [(col, ...)] VALUES (lit, ...)`. Columns is
// nil when the statement omits the column list, meaning values map
// positionally onto the table's declared columns.
type Insert struct {
	Table   string
	Columns []string
	Values  []Literal
}

func (*Insert) isStatement() {}

// Delete is `DELETE FROM table [WHERE expr]`. Where is nil when absent.
type Delete struct {
	Table string
	Where Expr
}

func (*Delete) isStatement() {}

// Select is `SELECT col, ... FROM table [WHERE expr]`. Columns holding a
// single "*" entry means all columns.
type Select struct {
	Columns []string
	Table   string
	Where   Expr
}

func (*Select) isStatement() {}

// Expr is a WHERE-clause expression: an AndExpr or an EqExpr (spec §4.7 and
// §6 — AND conjunctions of column = literal comparisons are the only shape
// the executor understands; anything else type-asserts to neither and the
// executor raises Unsupported).
type Expr interface {
	isExpr()
}

// AndExpr is `left AND right`.
type AndExpr struct {
	Left  Expr
	Right Expr
}

func (*AndExpr) isExpr() {}

// EqExpr is `Column = Literal`.
type EqExpr struct {
	Column ColumnRef
	Value  Literal
}

func (*EqExpr) isExpr() {}

// ColumnRef is a (possibly table-qualified) column reference appearing on
// the left of an EqExpr. Table is empty when the reference is unqualified.
type ColumnRef struct {
	Table  string
	Column string
}

// LiteralKind distinguishes the two literal shapes the grammar accepts.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	StringLiteral
)

// Literal is an INT or STRING constant appearing in VALUES or on the right
// of an EqExpr.
type Literal struct {
	Kind LiteralKind
	I    int32
	S    string
}

func (Literal) isExpr() {}
