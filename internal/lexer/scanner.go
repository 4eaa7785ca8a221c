// Package lexer implements the character-cursor scanner described in
// spec.md §4.1: a stateful cursor that lazily produces one Token at a
// time, never allocating — every lexeme is a slice view into the source
// buffer, which must outlive the Scanner.
package lexer

import "github.com/chazu/lumen/internal/token"

// Scanner is a character cursor over a source buffer.
type Scanner struct {
	source  string
	start   int // start of the lexeme currently being scanned
	current int // next byte to consume
	line    int
}

// New creates a Scanner positioned at the start of source, line 1.
func New(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// ScanToken produces the next Token. After the source is exhausted it
// yields EOF repeatedly (idempotent), per spec.md §4.1.
func (s *Scanner) ScanToken() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.isAtEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LeftParen)
	case ')':
		return s.make(token.RightParen)
	case '{':
		return s.make(token.LeftBrace)
	case '}':
		return s.make(token.RightBrace)
	case ',':
		return s.make(token.Comma)
	case '.':
		return s.make(token.Dot)
	case '-':
		return s.make(token.Minus)
	case '+':
		return s.make(token.Plus)
	case ';':
		return s.make(token.Semicolon)
	case '*':
		return s.make(token.Star)
	case '/':
		return s.make(token.Slash)
	case '!':
		if s.match('=') {
			return s.make(token.BangEqual)
		}
		return s.make(token.Bang)
	case '=':
		if s.match('=') {
			return s.make(token.EqualEqual)
		}
		return s.make(token.Equal)
	case '<':
		if s.match('=') {
			return s.make(token.LessEqual)
		}
		return s.make(token.Less)
	case '>':
		if s.match('=') {
			return s.make(token.GreaterEqual)
		}
		return s.make(token.Greater)
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) isAtEnd() bool { return s.current >= len(s.source) }

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.isAtEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.isAtEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.advance() // closing quote
	return s.make(token.String)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.Number)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	lexeme := s.source[s.start:s.current]
	if kind, ok := token.Keywords[lexeme]; ok {
		return s.make(kind)
	}
	return s.make(token.Identifier)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.source[s.start:s.current], Line: s.line}
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{Kind: token.Error, Lexeme: msg, Line: s.line}
}
