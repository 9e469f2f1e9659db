package sqlparse

import (
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
)

// Lexer tokenizes SQL text into identifiers, keywords, delimiters and
// constants, following the teacher's text/scanner-based approach.
type Lexer struct {
	keywords    map[string]bool
	currentRune rune
	scanner     scanner.Scanner
}

// NewLexer returns a Lexer positioned at the first token of s.
func NewLexer(s string) *Lexer {
	var sc scanner.Scanner
	sc.Init(strings.NewReader(s))
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings
	sc.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (i > 0 && unicode.IsDigit(ch))
	}

	l := &Lexer{
		scanner:  sc,
		keywords: initKeywords(),
	}
	l.nextToken()
	return l
}

func initKeywords() map[string]bool {
	return map[string]bool{
		"select": true, "from": true, "where": true, "and": true,
		"insert": true, "into": true, "values": true,
		"delete": true, "create": true, "drop": true, "table": true,
		"index": true, "on": true, "show": true, "tables": true,
		"columns": true, "int": true, "text": true,
		"if": true, "not": true, "exists": true,
	}
}

// MatchDelim reports whether the current token is the delimiter rune d.
func (l *Lexer) MatchDelim(d rune) bool {
	return l.currentRune == d
}

// MatchIntConstant reports whether the current token is an integer literal.
func (l *Lexer) MatchIntConstant() bool {
	return l.currentRune == scanner.Int
}

// MatchStringConstant reports whether the current token is a string literal.
func (l *Lexer) MatchStringConstant() bool {
	return l.currentRune == scanner.String
}

// MatchKeyword reports whether the current token is the keyword w
// (case-insensitive).
func (l *Lexer) MatchKeyword(w string) bool {
	return l.currentRune == scanner.Ident && strings.EqualFold(l.scanner.TokenText(), w)
}

// MatchId reports whether the current token is a legal, non-keyword
// identifier.
func (l *Lexer) MatchId() bool {
	return l.currentRune == scanner.Ident && !l.keywords[strings.ToLower(l.scanner.TokenText())]
}

// MatchEOF reports whether the scanner has been exhausted.
func (l *Lexer) MatchEOF() bool {
	return l.currentRune == scanner.EOF
}

// EatDelim consumes the current token if it is delimiter d, panicking
// otherwise. Panics are the lexer's bad-syntax signal, recovered at the top
// of Parse.
func (l *Lexer) EatDelim(d rune) {
	if !l.MatchDelim(d) {
		panic("BadSyntax: expected delimiter " + string(d))
	}
	l.nextToken()
}

// EatIntConstant consumes and returns the current integer token.
func (l *Lexer) EatIntConstant() int32 {
	if !l.MatchIntConstant() {
		panic("BadSyntax: expected integer constant")
	}
	v, err := strconv.Atoi(l.scanner.TokenText())
	if err != nil {
		panic("BadSyntax: invalid integer format")
	}
	l.nextToken()
	return int32(v)
}

// EatStringConstant consumes and returns the current string token, with its
// surrounding quotes stripped.
func (l *Lexer) EatStringConstant() string {
	if !l.MatchStringConstant() {
		panic("BadSyntax: expected string constant")
	}
	text := l.scanner.TokenText()
	v := text[1 : len(text)-1]
	l.nextToken()
	return v
}

// EatKeyword consumes the current token if it is keyword w, panicking
// otherwise.
func (l *Lexer) EatKeyword(w string) {
	if !l.MatchKeyword(w) {
		panic("BadSyntax: expected keyword " + w)
	}
	l.nextToken()
}

// EatId consumes and returns the current identifier token.
func (l *Lexer) EatId() string {
	if !l.MatchId() {
		panic("BadSyntax: expected identifier")
	}
	v := l.scanner.TokenText()
	l.nextToken()
	return v
}

func (l *Lexer) nextToken() {
	l.currentRune = l.scanner.Scan()
}
