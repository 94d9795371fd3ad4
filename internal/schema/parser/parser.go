// Package parser extracts CREATE TABLE statements from SQL DDL text and
// splits each table body into raw column and constraint definitions.
//
// The parser is deliberately permissive: statements that are not CREATE TABLE
// are skipped without comment, and clauses that match none of the recognized
// shapes fall back to a best-effort column definition. The only fatal
// conditions are the ones that break statement structure itself, such as
// unbalanced parentheses or an unterminated literal.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reltools/reltools/internal/schema/tokenizer"
)

// TableDef is the raw parse result for one CREATE TABLE statement.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	PrimaryKey  *PrimaryKeyDef
	ForeignKeys []ForeignKeyDef
}

// ColumnDef captures one column clause before AST construction.
type ColumnDef struct {
	Name        string
	Type        string
	Constraints string
	// InlinePrimaryKey is set when the clause carried a trailing PRIMARY KEY
	// marker; the marker itself is excluded from Constraints.
	InlinePrimaryKey bool
}

// PrimaryKeyDef captures a table-level PRIMARY KEY (...) clause. Columns may
// be empty when the clause names no columns; the validator reports that case.
type PrimaryKeyDef struct {
	Columns []string
}

// ForeignKeyDef captures a table-level FOREIGN KEY clause. Name is empty when
// the clause had no CONSTRAINT prefix.
type ForeignKeyDef struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// ParseError reports DDL text that cannot be decomposed into statement or
// clause structure. It is fatal for the whole translation.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse scans src and returns the raw table definitions in declaration order.
// Duplicate table or column names are preserved as-is; referential and
// structural checks belong to the validator. Empty input yields an empty
// result.
func Parse(path string, src []byte) ([]*TableDef, error) {
	tokens, err := tokenizer.Scan(path, src)
	if err != nil {
		var scanErr *tokenizer.Error
		if errors.As(err, &scanErr) {
			return nil, &ParseError{Path: scanErr.Path, Line: scanErr.Line, Column: scanErr.Column, Message: scanErr.Message}
		}
		return nil, err
	}
	p := &parser{path: path, tokens: tokens}
	return p.parse()
}

type parser struct {
	path   string
	tokens []tokenizer.Token
	pos    int
}

func (p *parser) parse() ([]*TableDef, error) {
	var defs []*TableDef
	for !p.isEOF() {
		if p.matchKeyword("CREATE") && p.peekKeyword(1) == "TABLE" {
			def, err := p.parseCreateTable()
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
			continue
		}
		p.skipStatement()
	}
	return defs, nil
}

func (p *parser) parseCreateTable() (*TableDef, error) {
	createTok := p.advance() // CREATE
	p.advance()              // TABLE
	p.skipIfNotExists()

	nameTok := p.current()
	if nameTok.Kind != tokenizer.KindIdentifier && nameTok.Kind != tokenizer.KindKeyword {
		return nil, p.errorf(nameTok, "expected table name after CREATE TABLE")
	}
	p.advance()
	name := tokenizer.NormalizeIdentifier(nameTok.Text)
	if name == "" {
		return nil, p.errorf(nameTok, "expected table name after CREATE TABLE")
	}
	def := &TableDef{Name: name}

	if !p.matchSymbol("(") {
		return nil, p.errorf(p.current(), "expected ( after table name %s", def.Name)
	}
	p.advance()

	for {
		clause, closed, err := p.collectClause(createTok, def.Name)
		if err != nil {
			return nil, err
		}
		p.classifyClause(def, clause)
		if closed {
			break
		}
	}

	// Anything between the closing parenthesis and the statement terminator
	// (engine options and the like) is ignored.
	p.skipStatement()
	return def, nil
}

// collectClause gathers tokens until a top-level comma or the closing
// parenthesis of the table body. closed reports that the body ended.
func (p *parser) collectClause(createTok tokenizer.Token, tableName string) (clause []tokenizer.Token, closed bool, err error) {
	depth := 0
	for {
		tok := p.current()
		if tok.Kind == tokenizer.KindEOF {
			return nil, false, p.errorf(createTok, "unbalanced parentheses in CREATE TABLE %s", tableName)
		}
		if tok.Kind == tokenizer.KindSymbol {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					p.advance()
					return clause, true, nil
				}
				depth--
			case ",":
				if depth == 0 {
					p.advance()
					return clause, false, nil
				}
			}
		}
		clause = append(clause, tok)
		p.advance()
	}
}

func (p *parser) classifyClause(def *TableDef, clause []tokenizer.Token) {
	switch {
	case len(clause) == 0:
		// Stray comma or empty body; nothing to record.
	case keywordAt(clause, 0, "PRIMARY") && keywordAt(clause, 1, "KEY"):
		cols, _, ok := parseNameList(clause, 2)
		if !ok {
			cols = []string{}
		}
		// A later table-level clause overrides an earlier one.
		def.PrimaryKey = &PrimaryKeyDef{Columns: cols}
	case keywordAt(clause, 0, "FOREIGN") && keywordAt(clause, 1, "KEY"):
		if fk, ok := parseForeignKey("", clause[2:]); ok {
			def.ForeignKeys = append(def.ForeignKeys, fk)
		}
	case keywordAt(clause, 0, "CONSTRAINT"):
		if len(clause) < 2 {
			return
		}
		name := tokenizer.NormalizeIdentifier(clause[1].Text)
		if keywordAt(clause, 2, "FOREIGN") && keywordAt(clause, 3, "KEY") {
			if fk, ok := parseForeignKey(name, clause[4:]); ok {
				def.ForeignKeys = append(def.ForeignKeys, fk)
			}
		}
		// Other named constraints (CHECK, UNIQUE) carry no schema shape we
		// track and are dropped.
	default:
		if col, ok := parseColumnDefinition(clause); ok {
			def.Columns = append(def.Columns, col)
		}
	}
}

// parseColumnDefinition interprets a clause as <name> <type> [constraints...].
// Clauses with fewer than two tokens carry no usable definition and are
// dropped, matching the best-effort fallback policy.
func parseColumnDefinition(clause []tokenizer.Token) (ColumnDef, bool) {
	if len(clause) < 2 {
		return ColumnDef{}, false
	}
	col := ColumnDef{Name: tokenizer.NormalizeIdentifier(clause[0].Text)}
	if col.Name == "" {
		return ColumnDef{}, false
	}

	typeText := strings.ToUpper(clause[1].Text)
	rest := clause[2:]
	if len(rest) > 0 && symbolAt(rest, 0, "(") {
		params, next, ok := collectBalanced(rest, 0)
		if !ok {
			// Cannot happen for clauses produced by collectClause, which only
			// yields balanced token runs.
			return ColumnDef{}, false
		}
		typeText += concatTokens(params)
		rest = rest[next:]
	}
	col.Type = typeText

	remaining := make([]tokenizer.Token, 0, len(rest))
	for i := 0; i < len(rest); i++ {
		if keywordAt(rest, i, "PRIMARY") && keywordAt(rest, i+1, "KEY") {
			col.InlinePrimaryKey = true
			i++
			continue
		}
		remaining = append(remaining, rest[i])
	}
	col.Constraints = joinTokens(remaining)
	return col, true
}

// parseForeignKey interprets the tokens after FOREIGN KEY:
// ( cols... ) REFERENCES table ( refcols... ). Trailing referential actions
// (ON DELETE and friends) are ignored. Malformed clauses are dropped.
func parseForeignKey(name string, rest []tokenizer.Token) (ForeignKeyDef, bool) {
	cols, next, ok := parseNameList(rest, 0)
	if !ok || len(cols) == 0 {
		return ForeignKeyDef{}, false
	}
	if !keywordAt(rest, next, "REFERENCES") {
		return ForeignKeyDef{}, false
	}
	next++
	if next >= len(rest) {
		return ForeignKeyDef{}, false
	}
	refTok := rest[next]
	if refTok.Kind != tokenizer.KindIdentifier && refTok.Kind != tokenizer.KindKeyword {
		return ForeignKeyDef{}, false
	}
	refTable := tokenizer.NormalizeIdentifier(refTok.Text)
	if refTable == "" {
		return ForeignKeyDef{}, false
	}
	next++
	refCols, _, ok := parseNameList(rest, next)
	if !ok {
		return ForeignKeyDef{}, false
	}
	return ForeignKeyDef{
		Name:       name,
		Columns:    cols,
		RefTable:   refTable,
		RefColumns: refCols,
	}, true
}

// parseNameList reads a parenthesized, comma-separated identifier list
// starting at index i. It returns the names and the index just past the
// closing parenthesis.
func parseNameList(tokens []tokenizer.Token, i int) ([]string, int, bool) {
	if !symbolAt(tokens, i, "(") {
		return nil, i, false
	}
	names := []string{}
	for i++; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == tokenizer.KindSymbol {
			if tok.Text == ")" {
				return names, i + 1, true
			}
			if tok.Text == "," {
				continue
			}
			return nil, i, false
		}
		names = append(names, tokenizer.NormalizeIdentifier(tok.Text))
	}
	return nil, i, false
}

// collectBalanced returns the token run from an opening parenthesis at index i
// through its matching close, plus the index just past it.
func collectBalanced(tokens []tokenizer.Token, i int) ([]tokenizer.Token, int, bool) {
	depth := 0
	start := i
	for ; i < len(tokens); i++ {
		if tokens[i].Kind != tokenizer.KindSymbol {
			continue
		}
		switch tokens[i].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return tokens[start : i+1], i + 1, true
			}
		}
	}
	return nil, i, false
}

func (p *parser) skipIfNotExists() {
	if p.matchKeyword("IF") && p.peekKeyword(1) == "NOT" && p.peekKeyword(2) == "EXISTS" {
		p.advance()
		p.advance()
		p.advance()
	}
}

// skipStatement consumes tokens through the next top-level semicolon. Used
// both for non-DDL statements and for the tail of a parsed CREATE TABLE.
func (p *parser) skipStatement() {
	depth := 0
	for !p.isEOF() {
		tok := p.advance()
		if tok.Kind != tokenizer.KindSymbol {
			continue
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) errorf(tok tokenizer.Token, format string, args ...any) error {
	line, column := tok.Line, tok.Column
	if line == 0 {
		line = 1
	}
	if column == 0 {
		column = 1
	}
	return &ParseError{
		Path:    p.path,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) current() tokenizer.Token {
	if p.pos >= len(p.tokens) {
		return tokenizer.Token{Kind: tokenizer.KindEOF, File: p.path}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() tokenizer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) isEOF() bool {
	return p.current().Kind == tokenizer.KindEOF
}

func (p *parser) matchKeyword(text string) bool {
	tok := p.current()
	return tok.Kind == tokenizer.KindKeyword && tok.Text == text
}

func (p *parser) matchSymbol(text string) bool {
	tok := p.current()
	return tok.Kind == tokenizer.KindSymbol && tok.Text == text
}

// peekKeyword returns the keyword text n tokens ahead, or "" when that token
// is not a keyword.
func (p *parser) peekKeyword(n int) string {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return ""
	}
	if p.tokens[idx].Kind != tokenizer.KindKeyword {
		return ""
	}
	return p.tokens[idx].Text
}

func keywordAt(tokens []tokenizer.Token, i int, text string) bool {
	return i < len(tokens) && tokens[i].Kind == tokenizer.KindKeyword && tokens[i].Text == text
}

func symbolAt(tokens []tokenizer.Token, i int, text string) bool {
	return i < len(tokens) && tokens[i].Kind == tokenizer.KindSymbol && tokens[i].Text == text
}

// joinTokens rebuilds raw clause text with single spaces between tokens,
// omitting the space around tight punctuation so type parameters and
// reference lists read the way they were written.
func joinTokens(tokens []tokenizer.Token) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	var prev string
	for _, tok := range tokens {
		part := tok.Text
		if b.Len() > 0 && needsSpace(prev, part) {
			b.WriteByte(' ')
		}
		b.WriteString(part)
		prev = part
	}
	return strings.TrimSpace(b.String())
}

// concatTokens rebuilds a parenthesized parameter list with no interior
// spacing, so DECIMAL(10,2) round-trips exactly.
func concatTokens(tokens []tokenizer.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

func needsSpace(prev, next string) bool {
	if prev == "" || next == "" {
		return false
	}
	switch next {
	case ",", ")", ".":
		return false
	}
	switch prev {
	case "(", ".":
		return false
	}
	return true
}
