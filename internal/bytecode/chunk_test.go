package bytecode

import (
	"testing"

	"github.com/chazu/lumen/internal/value"
)

func TestWriteTracksLines(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpReturn, 1)
	c.WriteOp(OpNil, 2)
	if len(c.Code) != 2 || len(c.Lines) != 2 {
		t.Fatalf("code/lines length mismatch: %d/%d", len(c.Code), len(c.Lines))
	}
	if c.GetLine(0) != 1 || c.GetLine(1) != 2 {
		t.Errorf("lines = %v", c.Lines)
	}
}

func TestAddConstantIndexIsPosition(t *testing.T) {
	c := NewChunk()
	i0 := c.AddConstant(value.Number(1))
	i1 := c.AddConstant(value.Number(2))
	if i0 != 0 || i1 != 1 {
		t.Errorf("indices = %d, %d", i0, i1)
	}
}

func TestWriteConstantUsesShortFormUnder256(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.Number(42), 1)
	if OpCode(c.Code[0]) != OpConstant {
		t.Fatalf("expected OP_CONSTANT, got %v", OpCode(c.Code[0]))
	}
	if c.Code[1] != 0 {
		t.Errorf("index byte = %d, want 0", c.Code[1])
	}
}

func TestWriteConstantUsesLongFormAt256(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 256; i++ {
		c.AddConstant(value.Number(float64(i)))
	}
	c.WriteConstant(value.Number(999), 1)
	if OpCode(c.Code[0]) != OpConstantLong {
		t.Fatalf("expected OP_CONSTANT_LONG, got %v", OpCode(c.Code[0]))
	}
	idx, next := c.readConstantIndex(0)
	if idx != 256 {
		t.Errorf("idx = %d, want 256", idx)
	}
	if next != 4 {
		t.Errorf("next = %d, want 4", next)
	}
}

func TestChunkGrowthDoublesFromEight(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpReturn, 1)
	if cap(c.Code) != minCapacity {
		t.Errorf("initial cap = %d, want %d", cap(c.Code), minCapacity)
	}
	for i := 0; i < minCapacity; i++ {
		c.WriteOp(OpReturn, 1)
	}
	if cap(c.Code) != minCapacity*growthFactor {
		t.Errorf("grown cap = %d, want %d", cap(c.Code), minCapacity*growthFactor)
	}
}
