package tokenizer

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents the classification of a scanned token.
type Kind int

const (
	// KindInvalid represents an unrecognized or placeholder token.
	KindInvalid Kind = iota
	// KindIdentifier represents bare or quoted identifiers.
	KindIdentifier
	// KindKeyword represents SQL keywords normalized to uppercase.
	KindKeyword
	// KindNumber represents numeric literals.
	KindNumber
	// KindString represents string literals using single quotes.
	KindString
	// KindSymbol represents punctuation or operator symbols.
	KindSymbol
	// KindEOF marks the logical end of the input.
	KindEOF
)

// Token is a unit emitted by the scanner with positional metadata.
type Token struct {
	Kind   Kind
	Text   string
	File   string
	Line   int
	Column int
}

// Error describes a positional scanning error suitable for diagnostics.
type Error struct {
	Path    string
	Line    int
	Column  int
	Message string
}

// Error returns the printable representation of the tokenizer error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// IsKeyword reports whether the provided string matches a known keyword.
func IsKeyword(s string) bool {
	if s == "" {
		return false
	}
	_, ok := keywords[strings.ToUpper(s)]
	return ok
}

// NormalizeIdentifier removes optional quoting from identifiers while unescaping content.
func NormalizeIdentifier(text string) string {
	if len(text) < 2 {
		return text
	}
	switch text[0] {
	case '"':
		if text[len(text)-1] != '"' {
			return text
		}
		return strings.ReplaceAll(text[1:len(text)-1], "\"\"", "\"")
	case '[':
		if text[len(text)-1] != ']' {
			return text
		}
		return text[1 : len(text)-1]
	case '`':
		if text[len(text)-1] != '`' {
			return text
		}
		return strings.ReplaceAll(text[1:len(text)-1], "``", "`")
	default:
		return text
	}
}

var keywords = map[string]struct{}{
	"AUTOINCREMENT": {},
	"CASCADE":       {},
	"CHECK":         {},
	"CONSTRAINT":    {},
	"CREATE":        {},
	"DEFAULT":       {},
	"DELETE":        {},
	"EXISTS":        {},
	"FOREIGN":       {},
	"IF":            {},
	"KEY":           {},
	"NO":            {},
	"NOT":           {},
	"NULL":          {},
	"ON":            {},
	"PRIMARY":       {},
	"REFERENCES":    {},
	"RESTRICT":      {},
	"SET":           {},
	"TABLE":         {},
	"UNIQUE":        {},
	"UPDATE":        {},
}

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindIdentifier:
		return "Identifier"
	case KindKeyword:
		return "Keyword"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindSymbol:
		return "Symbol"
	case KindEOF:
		return "EOF"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}
