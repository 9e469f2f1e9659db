// Package sqlparse is a small hand-written recursive-descent parser for the
// statement subset spec §6 names, grounded on the teacher's
// internal/app/parse/{lexer,parser}.go: a text/scanner lexer plus a
// Match*/Eat* parser that panics on bad syntax, recovered at the top-level
// Parse entrypoint into a plain error.
package sqlparse

import (
	"fmt"

	"sql5300/internal/sqlast"
)

// Parser drives a Lexer to build one sqlast.Statement.
type Parser struct {
	lexer *Lexer
}

// NewParser returns a Parser over SQL text s.
func NewParser(s string) *Parser {
	return &Parser{lexer: NewLexer(s)}
}

// Parse lexes and parses s into a single Statement. Bad syntax anywhere in
// the input is reported as an error rather than a panic.
func Parse(s string) (stmt sqlast.Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			stmt = nil
			err = fmt.Errorf("sqlparse: %v", r)
		}
	}()
	p := NewParser(s)
	stmt = p.Statement()
	if !p.lexer.MatchEOF() {
		return nil, fmt.Errorf("sqlparse: unexpected trailing input")
	}
	return stmt, nil
}

// Statement dispatches on the leading keyword to the statement-specific
// parse method.
func (p *Parser) Statement() sqlast.Statement {
	switch {
	case p.lexer.MatchKeyword("select"):
		return p.selectStatement()
	case p.lexer.MatchKeyword("insert"):
		return p.insertStatement()
	case p.lexer.MatchKeyword("delete"):
		return p.deleteStatement()
	case p.lexer.MatchKeyword("create"):
		return p.createStatement()
	case p.lexer.MatchKeyword("drop"):
		return p.dropStatement()
	case p.lexer.MatchKeyword("show"):
		return p.showStatement()
	default:
		panic("BadSyntax: expected a statement")
	}
}

// -------- SELECT --------

func (p *Parser) selectStatement() *sqlast.Select {
	p.lexer.EatKeyword("select")
	cols := p.selectList()
	p.lexer.EatKeyword("from")
	table := p.lexer.EatId()
	var where sqlast.Expr
	if p.lexer.MatchKeyword("where") {
		p.lexer.EatKeyword("where")
		where = p.expr()
	}
	return &sqlast.Select{Columns: cols, Table: table, Where: where}
}

// selectList parses `*` or a comma-separated column list.
func (p *Parser) selectList() []string {
	if p.lexer.MatchDelim('*') {
		p.lexer.EatDelim('*')
		return []string{"*"}
	}
	cols := []string{p.lexer.EatId()}
	for p.lexer.MatchDelim(',') {
		p.lexer.EatDelim(',')
		cols = append(cols, p.lexer.EatId())
	}
	return cols
}

// -------- WHERE expressions (spec §4.7: AND of column = literal) --------

func (p *Parser) expr() sqlast.Expr {
	left := p.eqExpr()
	if p.lexer.MatchKeyword("and") {
		p.lexer.EatKeyword("and")
		right := p.expr()
		return &sqlast.AndExpr{Left: left, Right: right}
	}
	return left
}

func (p *Parser) eqExpr() sqlast.Expr {
	col := p.columnRef()
	p.lexer.EatDelim('=')
	lit := p.literal()
	return &sqlast.EqExpr{Column: col, Value: lit}
}

func (p *Parser) columnRef() sqlast.ColumnRef {
	first := p.lexer.EatId()
	if p.lexer.MatchDelim('.') {
		p.lexer.EatDelim('.')
		col := p.lexer.EatId()
		return sqlast.ColumnRef{Table: first, Column: col}
	}
	return sqlast.ColumnRef{Column: first}
}

func (p *Parser) literal() sqlast.Literal {
	if p.lexer.MatchStringConstant() {
		return sqlast.Literal{Kind: sqlast.StringLiteral, S: p.lexer.EatStringConstant()}
	}
	return sqlast.Literal{Kind: sqlast.IntLiteral, I: p.lexer.EatIntConstant()}
}

// -------- INSERT --------

func (p *Parser) insertStatement() *sqlast.Insert {
	p.lexer.EatKeyword("insert")
	p.lexer.EatKeyword("into")
	table := p.lexer.EatId()

	var cols []string
	if p.lexer.MatchDelim('(') {
		p.lexer.EatDelim('(')
		cols = p.fieldList()
		p.lexer.EatDelim(')')
	}

	p.lexer.EatKeyword("values")
	p.lexer.EatDelim('(')
	values := p.constList()
	p.lexer.EatDelim(')')

	return &sqlast.Insert{Table: table, Columns: cols, Values: values}
}

func (p *Parser) fieldList() []string {
	fields := []string{p.lexer.EatId()}
	for p.lexer.MatchDelim(',') {
		p.lexer.EatDelim(',')
		fields = append(fields, p.lexer.EatId())
	}
	return fields
}

func (p *Parser) constList() []sqlast.Literal {
	values := []sqlast.Literal{p.literal()}
	for p.lexer.MatchDelim(',') {
		p.lexer.EatDelim(',')
		values = append(values, p.literal())
	}
	return values
}

// -------- DELETE --------

func (p *Parser) deleteStatement() *sqlast.Delete {
	p.lexer.EatKeyword("delete")
	p.lexer.EatKeyword("from")
	table := p.lexer.EatId()
	var where sqlast.Expr
	if p.lexer.MatchKeyword("where") {
		p.lexer.EatKeyword("where")
		where = p.expr()
	}
	return &sqlast.Delete{Table: table, Where: where}
}

// -------- CREATE --------

func (p *Parser) createStatement() sqlast.Statement {
	p.lexer.EatKeyword("create")
	if p.lexer.MatchKeyword("table") {
		return p.createTable()
	}
	return p.createIndex()
}

func (p *Parser) createTable() *sqlast.CreateTable {
	p.lexer.EatKeyword("table")
	ifNotExists := false
	if p.lexer.MatchKeyword("if") {
		p.lexer.EatKeyword("if")
		p.lexer.EatKeyword("not")
		p.lexer.EatKeyword("exists")
		ifNotExists = true
	}
	table := p.lexer.EatId()
	p.lexer.EatDelim('(')
	cols := p.columnDefs()
	p.lexer.EatDelim(')')
	return &sqlast.CreateTable{Table: table, Columns: cols, IfNotExists: ifNotExists}
}

func (p *Parser) columnDefs() []sqlast.ColumnDef {
	defs := []sqlast.ColumnDef{p.columnDef()}
	for p.lexer.MatchDelim(',') {
		p.lexer.EatDelim(',')
		defs = append(defs, p.columnDef())
	}
	return defs
}

func (p *Parser) columnDef() sqlast.ColumnDef {
	name := p.lexer.EatId()
	var typ string
	switch {
	case p.lexer.MatchKeyword("int"):
		p.lexer.EatKeyword("int")
		typ = "INT"
	case p.lexer.MatchKeyword("text"):
		p.lexer.EatKeyword("text")
		typ = "TEXT"
	default:
		panic("BadSyntax: expected column type INT or TEXT")
	}
	return sqlast.ColumnDef{Name: name, Type: typ}
}

func (p *Parser) createIndex() *sqlast.CreateIndex {
	p.lexer.EatKeyword("index")
	index := p.lexer.EatId()
	p.lexer.EatKeyword("on")
	table := p.lexer.EatId()
	p.lexer.EatDelim('(')
	cols := p.fieldList()
	p.lexer.EatDelim(')')
	return &sqlast.CreateIndex{Index: index, Table: table, Columns: cols}
}

// -------- DROP --------

func (p *Parser) dropStatement() sqlast.Statement {
	p.lexer.EatKeyword("drop")
	if p.lexer.MatchKeyword("table") {
		p.lexer.EatKeyword("table")
		table := p.lexer.EatId()
		return &sqlast.DropTable{Table: table}
	}
	p.lexer.EatKeyword("index")
	index := p.lexer.EatId()
	p.lexer.EatKeyword("on")
	table := p.lexer.EatId()
	return &sqlast.DropIndex{Index: index, Table: table}
}

// -------- SHOW --------

func (p *Parser) showStatement() sqlast.Statement {
	p.lexer.EatKeyword("show")
	switch {
	case p.lexer.MatchKeyword("tables"):
		p.lexer.EatKeyword("tables")
		return &sqlast.ShowTables{}
	case p.lexer.MatchKeyword("columns"):
		p.lexer.EatKeyword("columns")
		p.lexer.EatKeyword("from")
		table := p.lexer.EatId()
		return &sqlast.ShowColumns{Table: table}
	default:
		p.lexer.EatKeyword("index")
		p.lexer.EatKeyword("from")
		table := p.lexer.EatId()
		return &sqlast.ShowIndex{Table: table}
	}
}
