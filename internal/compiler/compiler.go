// Package compiler implements the single-pass Pratt compiler described in
// spec.md §4.4: a table mapping token kind to prefix/infix parse
// functions and a precedence, driving emission directly into a Chunk with
// no intermediate AST.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/chazu/lumen/internal/bytecode"
	"github.com/chazu/lumen/internal/intern"
	"github.com/chazu/lumen/internal/lexer"
	"github.com/chazu/lumen/internal/token"
	"github.com/chazu/lumen/internal/value"
)

// Precedence is the Pratt ladder, low to high, per spec.md §4.4.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the per-token-kind table driving parsePrecedence: spec.md's
// "function-pointer rule table" design note, re-expressed in Go as a map
// from token kind to a record of optional callbacks plus a precedence.
var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LeftParen:    {prefix: (*Compiler).grouping},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Number:       {prefix: (*Compiler).number},
		token.String:       {prefix: (*Compiler).string},
		token.False:        {prefix: (*Compiler).literal},
		token.True:         {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
	}
}

func ruleFor(k token.Kind) rule { return rules[k] }

// Error is a single compile diagnostic, formatted per spec.md §7.2:
// "[line N] Error at '<lexeme>': <message>" (or "at end" for EOF).
type Error struct {
	Line    int
	Where   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// Compiler holds one compile() call's parser state: current/previous
// tokens, the error/panic flags, the scanner, and the chunk being filled.
// Per spec.md §3, this state does not outlive a single Compile call.
type Compiler struct {
	scanner *lexer.Scanner
	strings *intern.Table
	chunk   *bytecode.Chunk

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []error
}

// Compile parses source as a single expression and emits its bytecode
// into chunk, using strings as the canonical intern table for string
// literals. It returns nil iff the compile had no errors, matching
// spec.md §4.4's "compile returns true iff had_error is false" contract
// (Go idiom: error-or-nil instead of a boolean flag).
func Compile(source string, chunk *bytecode.Chunk, strings *intern.Table) error {
	c := &Compiler{
		scanner: lexer.New(source),
		strings: strings,
		chunk:   chunk,
	}
	c.advance()
	c.expression()
	c.consume(token.EOF, "Expect end of expression.")
	c.endCompile()
	if c.hadError {
		return errors.Wrap(joinErrors(c.errors), "compile error")
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return errors.New("unknown compile error")
	}
	return errs[0]
}

// Errors returns the diagnostics collected during the last Compile call
// that used this Compiler. Panic mode is never cleared within one
// compile, so this holds at most one diagnostic: the first error.
func (c *Compiler) Errors() []error { return c.errors }

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Kind != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(kind token.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

// parsePrecedence implements spec.md §4.4's control contract exactly:
// advance, consult previous's prefix rule (error if none), invoke it,
// then climb infix rules while current's precedence >= p.
func (c *Compiler) parsePrecedence(p Precedence) {
	c.advance()
	prefixRule := ruleFor(c.previous.Kind).prefix
	if prefixRule == nil {
		c.errorAtPrevious("Expected expression.")
		return
	}
	prefixRule(c, p <= PrecAssignment)

	for p <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infixRule := ruleFor(c.previous.Kind).infix
		infixRule(c, false)
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(_ bool) {
	// Lexeme includes the surrounding quotes; strip them before interning.
	raw := c.previous.Lexeme
	content := raw[1 : len(raw)-1]
	obj, _ := c.strings.Copy(content)
	c.emitConstant(value.FromObj(obj))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	default:
		panic("compiler: literal called on non-literal token")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

// unary handles prefix `-` and `!`, recursing at PrecUnary so that unary
// operators are right-associative, per spec.md §4.4.
func (c *Compiler) unary(_ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

// binary handles every infix operator in spec.md's emission table,
// recursing at precedence+1 so that equal-precedence chains associate
// left, per spec.md §4.4 and the "Left-associativity" testable property.
func (c *Compiler) binary(_ bool) {
	opKind := c.previous.Kind
	r := ruleFor(opKind)
	c.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case token.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.chunk.WriteConstant(v, c.previous.Line)
}

func (c *Compiler) endCompile() {
	c.emitOp(bytecode.OpReturn)
}

// errorAtCurrent and errorAtPrevious implement spec.md §7.2's panic-mode
// gating: the first error is reported and sets panicMode; subsequent
// errors are silently dropped until the caller resynchronizes (in this
// expression-only surface, the only sync point is the trailing EOF
// consume, so panicMode effectively suppresses the rest of one compile).
func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) errorAtPrevious(message string) { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	} else if tok.Kind == token.Error {
		where = ""
	}
	c.errors = append(c.errors, &Error{Line: tok.Line, Where: where, Message: message})
}
