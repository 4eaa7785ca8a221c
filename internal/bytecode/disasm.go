package bytecode

import (
	"fmt"
	"strings"

	"github.com/kr/text"
)

// DisassembleChunk renders every instruction in c as a human-readable
// listing, grounded on the teacher's Chunk.DisassembleWithName
// (pkg/bytecode/disasm.go): spec.md §4.6's disassemble_chunk.
func DisassembleChunk(c *Chunk, name string) string {
	var body strings.Builder
	for offset := 0; offset < len(c.Code); {
		line, next := DisassembleInstruction(c, offset)
		body.WriteString(line)
		body.WriteString("\n")
		offset = next
	}

	if name == "" {
		return body.String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	sb.WriteString(Indent(body.String(), "  "))
	return sb.String()
}

// DisassembleInstruction decodes the instruction at offset, returning its
// formatted text and the offset of the next instruction: spec.md §4.6's
// disassemble_instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)

	line := c.GetLine(offset)
	if offset > 0 && line == c.GetLine(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", line)
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpConstantLong:
		idx, next := c.readConstantIndex(offset)
		fmt.Fprintf(&sb, "%-16s %4d '%s'", op, idx, c.Constants[idx])
		return sb.String(), next
	case OpNil, OpTrue, OpFalse, OpEqual, OpGreater, OpLess, OpAdd, OpSubtract,
		OpMultiply, OpDivide, OpNot, OpNegate, OpReturn:
		sb.WriteString(op.String())
		return sb.String(), offset + 1
	default:
		fmt.Fprintf(&sb, "Unknown opcode %d", byte(op))
		return sb.String(), offset + 1
	}
}

// Indent reindents a multi-line disassembly under a fixed prefix.
// DisassembleChunk uses it to nest each instruction line under the
// "== name ==" header.
func Indent(s, prefix string) string {
	return text.Indent(s, prefix)
}
