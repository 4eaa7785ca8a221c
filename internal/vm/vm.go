// Package vm implements the register-free stack machine described in
// spec.md §4.5: it owns the intern table and the live-object list so
// that values produced by the compiler (interned string constants) and
// by execution (concatenation results) share identity, and it dispatches
// a flat byte stream of opcodes against an operand stack.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/lumen/internal/bytecode"
	"github.com/chazu/lumen/internal/compiler"
	"github.com/chazu/lumen/internal/intern"
	"github.com/chazu/lumen/internal/value"
)

// StackMax is the fixed operand stack capacity, per spec.md §4.5.
const StackMax = 256

// Result is the terminal status returned by Interpret.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case CompileError:
		return "COMPILE_ERROR"
	case RuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// VM is a single-threaded stack machine over one Chunk at a time. The
// intern table and the object list persist across Interpret calls: a
// runtime error resets the operand stack but leaves both intact, per
// spec.md §7 ("The VM's state remains usable for a subsequent call").
type VM struct {
	chunk *bytecode.Chunk
	ip    int

	stack    []value.Value
	stackTop int
	strings  *intern.Table
	objects  *value.Obj // head of the intrusive live-object list

	// TraceExecution and PrintCode mirror spec.md §6's compile-time debug
	// flags, exposed here as runtime-configurable fields (see
	// internal/config) instead of #ifdef blocks.
	TraceExecution bool
	PrintCode      bool

	// LastPrinted holds the text OP_RETURN last wrote to Stdout, so a
	// caller (the REPL's history) can record what a call printed without
	// scraping Stdout itself. Reset to "" at the start of every Run.
	LastPrinted string

	Stdout io.Writer
	Stderr io.Writer
	Logger commonlog.Logger
}

// New creates a VM with an empty intern table, object list, and a stack
// sized to StackMax. Use WithStackSize to override the stack size (see
// internal/config's vm.stack_size knob).
func New() *VM {
	return &VM{
		stack:   make([]value.Value, StackMax),
		strings: intern.New(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  commonlog.GetLogger("lumen.vm"),
	}
}

// WithStackSize replaces the VM's operand stack with one of n slots.
// Call before the first Interpret/Run; any values already on the stack
// are discarded.
func (vm *VM) WithStackSize(n int) *VM {
	vm.stack = make([]value.Value, n)
	vm.stackTop = 0
	return vm
}

// Free discards every live object and the intern table. After Free the
// VM must not be reused.
func (vm *VM) Free() {
	vm.objects = nil
	vm.strings = nil
}

// Strings exposes the VM's intern table so the compiler can share it
// across a single Interpret call (spec.md §5: "the intern table ... must
// be owned by the VM").
func (vm *VM) Strings() *intern.Table { return vm.strings }

// adopt links obj onto the VM's live-object list. Every object the
// compiler or the VM creates must be adopted exactly once, per spec.md
// §5's memory discipline.
func (vm *VM) adopt(obj *value.Obj) {
	obj.Next = vm.objects
	vm.objects = obj
}

// Compile parses source into a fresh chunk without running it, reporting
// any compile error to vm.Stderr and vm.Logger the same way Interpret
// does. Exposed so a caller that wants to populate the bytecode cache
// (see internal/cache) can obtain a chunk to store without duplicating
// error reporting, and without paying for a second, redundant compile
// of the same source once it runs the chunk via Run.
func (vm *VM) Compile(source string, traceID uuid.UUID) (*bytecode.Chunk, error) {
	chunk := bytecode.NewChunk()
	if err := compiler.Compile(source, chunk, vm.strings); err != nil {
		fmt.Fprintln(vm.Stderr, err)
		vm.Logger.Infof("compile error (trace=%s): %v", traceID, err)
		return nil, err
	}
	return chunk, nil
}

// Run executes an already-compiled chunk, such as one retrieved from the
// bytecode cache on a hit, tagging its log lines with traceID exactly as
// Interpret would for a freshly compiled one.
func (vm *VM) Run(chunk *bytecode.Chunk, traceID uuid.UUID) Result {
	// Adopt every string constant the compiler interned for this chunk so
	// teardown can reach it. Equal literals share one interned *value.Obj,
	// and a chunk may carry objects already on the list (an earlier call
	// interned the same content, or the chunk is run again), so each
	// constant goes through adoptIfNew, which scans the object list and
	// links an object at most once.
	for _, c := range chunk.Constants {
		if c.IsString() {
			vm.adoptIfNew(c.AsObj())
		}
	}

	if vm.PrintCode {
		fmt.Fprint(vm.Stdout, bytecode.DisassembleChunk(chunk, "chunk"))
	}

	vm.chunk = chunk
	vm.ip = 0
	vm.stackTop = 0
	vm.LastPrinted = ""

	vm.Logger.Debugf("interpret start (trace=%s)", traceID)
	return vm.run()
}

// InterpretTraced is Interpret but also returns the trace ID minted for
// this call, so a caller that keeps its own record of the call (the
// REPL's history row, the cache's log lines) can tag that record with the
// same ID the VM used for its own logging instead of minting an unrelated
// second one, per SPEC_FULL.md §3.4.
func (vm *VM) InterpretTraced(source string) (Result, uuid.UUID) {
	traceID := uuid.New()
	chunk, err := vm.Compile(source, traceID)
	if err != nil {
		return CompileError, traceID
	}
	return vm.Run(chunk, traceID), traceID
}

// Interpret compiles source into a fresh chunk and runs it, per spec.md
// §6's external interface. Intern table and object list are shared
// across calls.
func (vm *VM) Interpret(source string) Result {
	result, _ := vm.InterpretTraced(source)
	return result
}

// adoptIfNew links obj onto the object list only if it is not already
// there. A linear scan is adequate at the object counts this VM deals
// with; a real GC-backed VM would instead check a per-object "reachable
// from list" bit, but spec.md explicitly scopes GC out.
func (vm *VM) adoptIfNew(obj *value.Obj) {
	for node := vm.objects; node != nil; node = node.Next {
		if node == obj {
			return
		}
	}
	vm.adopt(obj)
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() { vm.stackTop = 0 }

// run executes vm.chunk from vm.ip until OP_RETURN or a runtime error.
func (vm *VM) run() Result {
	for {
		if vm.TraceExecution {
			vm.traceStep()
		}

		op := bytecode.OpCode(vm.readByte())
		switch op {
		case bytecode.OpConstant:
			idx := int(vm.readByte())
			vm.push(vm.chunk.Constants[idx])
		case bytecode.OpConstantLong:
			idx := int(vm.readByte())<<16 | int(vm.readByte())<<8 | int(vm.readByte())
			vm.push(vm.chunk.Constants[idx])
		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			if r := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }); r != OK {
				return r
			}
		case bytecode.OpLess:
			if r := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }); r != OK {
				return r
			}
		case bytecode.OpAdd:
			if r := vm.add(); r != OK {
				return r
			}
		case bytecode.OpSubtract:
			if r := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }); r != OK {
				return r
			}
		case bytecode.OpMultiply:
			if r := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }); r != OK {
				return r
			}
		case bytecode.OpDivide:
			if r := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }); r != OK {
				return r
			}
		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().Falsey()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))
		case bytecode.OpReturn:
			result := vm.pop()
			vm.LastPrinted = result.String()
			fmt.Fprintln(vm.Stdout, vm.LastPrinted)
			return OK
		default:
			return vm.runtimeError(fmt.Sprintf("Unknown opcode %d.", byte(op)))
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

// binaryNumberOp implements the shared operand-checking for GREATER,
// LESS, SUBTRACT, MULTIPLY, and DIVIDE: both operands must be numbers.
func (vm *VM) binaryNumberOp(op func(a, b float64) value.Value) Result {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return OK
}

// add implements OP_ADD's dual numeric/string behavior, per spec.md
// §4.5: numeric addition for two numbers, concatenation for two strings,
// otherwise a runtime error.
func (vm *VM) add() Result {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		vm.push(vm.concatenate(a.AsString(), b.AsString()))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return OK
}

// concatenate builds a new string and interns it, adopting the result
// onto the object list so it is reclaimed at VM teardown.
func (vm *VM) concatenate(a, b string) value.Value {
	obj, hit := vm.strings.Copy(a + b)
	if !hit {
		vm.adopt(obj)
	}
	return value.FromObj(obj)
}

// runtimeError resets the stack and reports the diagnostic the VM's
// stderr, per spec.md §7.3: "[line L] in script" using the failing
// instruction's source line.
func (vm *VM) runtimeError(format string, args ...interface{}) Result {
	msg := fmt.Sprintf(format, args...)
	line := vm.chunk.GetLine(vm.ip - 1)
	fmt.Fprintln(vm.Stderr, msg)
	fmt.Fprintf(vm.Stderr, "[line %d] in script\n", line)
	vm.Logger.Errorf("runtime error at line %d: %s", line, msg)
	vm.resetStack()
	return RuntimeError
}

func (vm *VM) traceStep() {
	fmt.Fprint(vm.Stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.Stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.Stderr)
	text, _ := bytecode.DisassembleInstruction(vm.chunk, vm.ip)
	fmt.Fprintln(vm.Stderr, text)
}
