package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/lumen/internal/value"
)

func TestDisassembleChunkSimple(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.Number(7), 1)
	c.WriteOp(OpReturn, 1)

	out := DisassembleChunk(c, "test")
	if !strings.Contains(out, "== test ==") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "OP_CONSTANT") {
		t.Error("missing OP_CONSTANT")
	}
	if !strings.Contains(out, "'7'") {
		t.Error("missing rendered constant value")
	}
	if !strings.Contains(out, "OP_RETURN") {
		t.Error("missing OP_RETURN")
	}
}

func TestDisassembleInstructionSameLineMarker(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpNil, 5)
	c.WriteOp(OpReturn, 5)

	first, next := DisassembleInstruction(c, 0)
	if !strings.Contains(first, "5") {
		t.Errorf("first instruction should show line 5: %q", first)
	}
	second, _ := DisassembleInstruction(c, next)
	if !strings.Contains(second, "|") {
		t.Errorf("second instruction on the same line should show '|': %q", second)
	}
}
