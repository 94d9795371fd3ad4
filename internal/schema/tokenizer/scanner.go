// Package tokenizer scans SQL DDL source into tokens.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eofRune = -1

// Scan tokenizes the provided DDL source and returns the token stream.
// The stream always ends with a KindEOF token.
func Scan(path string, src []byte) ([]Token, error) {
	if !utf8.Valid(src) {
		return nil, &Error{Path: path, Line: 1, Column: 1, Message: "input is not valid UTF-8"}
	}
	scanner := &Scanner{
		path:   path,
		src:    string(src),
		tokens: make([]Token, 0, len(src)/4+1),
		line:   1,
		column: 1,
	}
	if err := scanner.scan(); err != nil {
		return nil, err
	}
	return scanner.tokens, nil
}

// Scanner maintains scanning state over a DDL source.
type Scanner struct {
	path   string
	src    string
	tokens []Token
	index  int
	line   int
	column int
}

func (s *Scanner) scan() error {
	for s.index < len(s.src) {
		r := s.peek()
		switch {
		case r == eofRune:
			s.index = len(s.src)
		case unicode.IsSpace(r):
			s.consumeWhitespace()
		case r == '-' && s.peekNext() == '-':
			s.consumeLineComment()
		case r == '/' && s.peekNext() == '*':
			if err := s.consumeBlockComment(); err != nil {
				return err
			}
		case r == '\'':
			if err := s.consumeStringLiteral(); err != nil {
				return err
			}
		case r == '"' || r == '[' || r == '`':
			if err := s.consumeQuotedIdentifier(); err != nil {
				return err
			}
		case isIdentifierStart(r):
			s.consumeIdentifier()
		case isDigit(r):
			s.consumeNumber()
		default:
			startLine, startCol := s.line, s.column
			s.advance()
			s.emitToken(KindSymbol, string(r), startLine, startCol)
		}
	}
	s.emitToken(KindEOF, "", s.line, s.column)
	return nil
}

func (s *Scanner) consumeWhitespace() {
	for {
		r := s.peek()
		if r == eofRune || !unicode.IsSpace(r) {
			return
		}
		s.advance()
	}
}

func (s *Scanner) consumeLineComment() {
	for {
		r := s.peek()
		if r == eofRune || r == '\n' || r == '\r' {
			return
		}
		s.advance()
	}
}

func (s *Scanner) consumeBlockComment() error {
	startLine, startCol := s.line, s.column
	s.advance() // '/'
	s.advance() // '*'
	for {
		if s.index >= len(s.src) {
			return s.errorf(startLine, startCol, "unterminated block comment")
		}
		if s.peek() == '*' && s.peekNext() == '/' {
			s.advance() // '*'
			s.advance() // '/'
			return nil
		}
		s.advance()
	}
}

func (s *Scanner) consumeStringLiteral() error {
	startIdx := s.index
	startLine, startCol := s.line, s.column
	s.advance() // opening quote
	for {
		if s.index >= len(s.src) {
			return s.errorf(startLine, startCol, "unterminated string literal")
		}
		r := s.peek()
		s.advance()
		if r == '\'' {
			// Doubled quote escapes a literal quote.
			if s.peek() == '\'' {
				s.advance()
				continue
			}
			break
		}
	}
	text := s.src[startIdx:s.index]
	s.emitToken(KindString, text, startLine, startCol)
	return nil
}

func (s *Scanner) consumeQuotedIdentifier() error {
	startIdx := s.index
	startLine, startCol := s.line, s.column
	quote := s.peek()
	var closing rune
	switch quote {
	case '[':
		closing = ']'
	default:
		closing = quote
	}
	s.advance() // opening quote
	for {
		if s.index >= len(s.src) {
			return s.errorf(startLine, startCol, "unterminated quoted identifier")
		}
		r := s.peek()
		s.advance()
		if r == closing {
			next := s.peek()
			if (quote == '"' && next == '"') || (quote == '[' && next == ']') || (quote == '`' && next == '`') {
				s.advance()
				continue
			}
			break
		}
	}
	text := s.src[startIdx:s.index]
	s.emitToken(KindIdentifier, text, startLine, startCol)
	return nil
}

func (s *Scanner) consumeIdentifier() {
	startIdx := s.index
	startLine, startCol := s.line, s.column
	s.advance()
	for {
		r := s.peek()
		if !isIdentifierPart(r) {
			break
		}
		s.advance()
	}
	text := s.src[startIdx:s.index]
	upper := strings.ToUpper(text)
	if IsKeyword(upper) {
		s.emitToken(KindKeyword, upper, startLine, startCol)
		return
	}
	s.emitToken(KindIdentifier, text, startLine, startCol)
}

func (s *Scanner) consumeNumber() {
	startIdx := s.index
	startLine, startCol := s.line, s.column
	s.advanceDigits()
	if s.peek() == '.' {
		s.advance()
		s.advanceDigits()
	}
	next := s.peek()
	if next == 'e' || next == 'E' {
		s.advance()
		sign := s.peek()
		if sign == '+' || sign == '-' {
			s.advance()
		}
		s.advanceDigits()
	}
	text := s.src[startIdx:s.index]
	s.emitToken(KindNumber, text, startLine, startCol)
}

func (s *Scanner) advanceDigits() {
	for isDigit(s.peek()) {
		s.advance()
	}
}

func (s *Scanner) emitToken(kind Kind, text string, line, column int) {
	s.tokens = append(s.tokens, Token{
		Kind:   kind,
		Text:   text,
		File:   s.path,
		Line:   line,
		Column: column,
	})
}

func (s *Scanner) peek() rune {
	if s.index >= len(s.src) {
		return eofRune
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.index:])
	return r
}

func (s *Scanner) peekNext() rune {
	idx := s.index
	if idx >= len(s.src) {
		return eofRune
	}
	_, size := utf8.DecodeRuneInString(s.src[idx:])
	idx += size
	if idx >= len(s.src) {
		return eofRune
	}
	r, _ := utf8.DecodeRuneInString(s.src[idx:])
	return r
}

func (s *Scanner) advance() rune {
	if s.index >= len(s.src) {
		return eofRune
	}
	r, size := utf8.DecodeRuneInString(s.src[s.index:])
	s.index += size
	switch r {
	case '\r':
		if s.index < len(s.src) && s.src[s.index] == '\n' {
			s.index++
		}
		s.line++
		s.column = 1
		return '\n'
	case '\n':
		s.line++
		s.column = 1
	default:
		s.column++
	}
	return r
}

func (s *Scanner) errorf(line, column int, format string, args ...any) error {
	return &Error{
		Path:    s.path,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
