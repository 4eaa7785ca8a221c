package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/lumen/internal/bytecode"
	"github.com/chazu/lumen/internal/intern"
	"github.com/chazu/lumen/internal/lexer"
)

func compile(t *testing.T, src string) (*bytecode.Chunk, error) {
	chunk := bytecode.NewChunk()
	tab := intern.New()
	err := Compile(src, chunk, tab)
	return chunk, err
}

func opsOf(chunk *bytecode.Chunk) []bytecode.OpCode {
	var ops []bytecode.OpCode
	for offset := 0; offset < len(chunk.Code); {
		op := bytecode.OpCode(chunk.Code[offset])
		ops = append(ops, op)
		offset += 1 + op.OperandLen()
	}
	return ops
}

func TestCompileLiteral(t *testing.T) {
	chunk, err := compile(t, "nil")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ops := opsOf(chunk)
	want := []bytecode.OpCode{bytecode.OpNil, bytecode.OpReturn}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestCompileLeftAssociativity(t *testing.T) {
	// 1 - 2 - 3 should be ((1-2)-3): two SUBTRACT ops emitted after both
	// constants are pushed left-to-right.
	chunk, err := compile(t, "1 - 2 - 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ops := opsOf(chunk)
	want := []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpSubtract,
		bytecode.OpConstant, bytecode.OpSubtract, bytecode.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestCompilePrecedence(t *testing.T) {
	// a + b * c: multiply binds tighter, so MULTIPLY is emitted before ADD.
	chunk, err := compile(t, "1 + 2 * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ops := opsOf(chunk)
	want := []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpConstant,
		bytecode.OpMultiply, bytecode.OpAdd, bytecode.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestCompileUnaryRightAssociativeWithBinary(t *testing.T) {
	// -a * b is (-a) * b: NEGATE applies only to the first operand.
	chunk, err := compile(t, "-1 * 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ops := opsOf(chunk)
	want := []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpNegate, bytecode.OpConstant,
		bytecode.OpMultiply, bytecode.OpReturn,
	}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

func TestCompileComparisonDesugaring(t *testing.T) {
	cases := map[string][]bytecode.OpCode{
		"1 != 2": {bytecode.OpConstant, bytecode.OpConstant, bytecode.OpEqual, bytecode.OpNot, bytecode.OpReturn},
		"1 >= 2": {bytecode.OpConstant, bytecode.OpConstant, bytecode.OpLess, bytecode.OpNot, bytecode.OpReturn},
		"1 <= 2": {bytecode.OpConstant, bytecode.OpConstant, bytecode.OpGreater, bytecode.OpNot, bytecode.OpReturn},
	}
	for src, want := range cases {
		chunk, err := compile(t, src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", src, err)
		}
		ops := opsOf(chunk)
		if len(ops) != len(want) {
			t.Fatalf("%s: ops = %v, want %v", src, ops, want)
		}
		for i := range want {
			if ops[i] != want[i] {
				t.Errorf("%s: ops[%d] = %v, want %v", src, i, ops[i], want[i])
			}
		}
	}
}

func TestCompileErrorMissingExpression(t *testing.T) {
	_, err := compile(t, "1 +")
	if err == nil {
		t.Fatal("expected a compile error for '1 +'")
	}
}

func TestCompileErrorMessageFormat(t *testing.T) {
	_, err := compile(t, ")")
	if err == nil {
		t.Fatal("expected an error")
	}
	want := "[line 1] Error at ')': Expected expression."
	if got := err.Error(); !strings.Contains(got, want) {
		t.Errorf("error = %q, want it to contain %q", got, want)
	}
}

func TestCompileGroupingAndString(t *testing.T) {
	chunk, err := compile(t, `("hello")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk.Constants) != 1 || !chunk.Constants[0].IsString() {
		t.Fatalf("constants = %v", chunk.Constants)
	}
	if chunk.Constants[0].AsString() != "hello" {
		t.Errorf("string constant = %q", chunk.Constants[0].AsString())
	}
}

func TestCompilePanicModeSuppressesCascade(t *testing.T) {
	// A single leading error should not cascade into a pile of reported
	// errors for every subsequent malformed token: panicMode suppresses
	// everything after the first.
	chunk := bytecode.NewChunk()
	tab := intern.New()
	c := &Compiler{scanner: lexer.New("+ + + +"), strings: tab, chunk: chunk}
	c.advance()
	c.expression()
	if len(c.errors) != 1 {
		t.Fatalf("errors = %v, want exactly 1", c.errors)
	}
}
