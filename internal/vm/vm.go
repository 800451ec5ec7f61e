// Package vm is the stack-based virtual machine: it executes a
// compiled bytecode.Assembly against an operand stack of array values,
// dispatching primitives, modifiers, and IO operations, and re-entering
// itself to run a modifier's operand functions on a schedule defined
// per modifier.
package vm

import (
	"time"

	"ua/internal/array"
	"ua/internal/ast"
	"ua/internal/bytecode"
	uerrors "ua/internal/errors"
	"ua/internal/ioeffect"
)

// StackUnderflowError is raised when an instruction needs more operands
// than the stack currently holds.
type StackUnderflowError struct {
	Need, Got int
	Span      bytecode.Span
}

func (e *StackUnderflowError) Error() string {
	return uerrors.New(uerrors.Runtime, toErrSpan(e.Span), "stack underflow: need %d, have %d", e.Need, e.Got).Error()
}

// SignatureMismatchError is raised on frame exit when a declared
// signature doesn't match the observed net stack effect.
type SignatureMismatchError struct {
	Want    ast.Signature
	GotIn   int
	GotOut  int
}

func (e *SignatureMismatchError) Error() string {
	return uerrors.New(uerrors.Runtime, uerrors.Span{}, "signature mismatch: declared |%d %d|, observed %d in / %d out",
		e.Want.Inputs, e.Want.Outputs, e.GotIn, e.GotOut).Error()
}

func toErrSpan(s bytecode.Span) uerrors.Span {
	return uerrors.Span{File: s.File, StartLine: s.Line, StartCol: s.Col, EndLine: s.Line, EndCol: s.Col}
}

// frame is an activation record pushed for every function invocation;
// when the function declares a signature (sig non-nil) its net stack
// effect is checked on exit.
type frame struct {
	baseLen int
	sig     *ast.Signature
	span    bytecode.Span
}

// VM holds the full state described by the spec: the operand stack, a
// call stack of frames, the assembly being executed, the effect
// backend, diagnostic flags, the args vector, and the file-path
// context used to resolve relative imports.
type VM struct {
	Assembly *bytecode.Assembly
	Backend  ioeffect.Backend
	Importer *ioeffect.Importer
	Path     string
	Args     []string

	PrintDiagnostics bool
	TimeInstrs       bool
	Timings          map[string]time.Duration

	stack        []array.Value
	frames       []frame
	globalValues map[string]array.Value

	// RunImport compiles and runs path's top-level, returning its final
	// stack. Supplied by internal/driver, which owns file resolution;
	// the VM only owns caching (via Importer) and replay.
	RunImport func(path string) (ioeffect.ImportResult, error)
}

func New(asm *bytecode.Assembly, backend ioeffect.Backend) *VM {
	return &VM{
		Assembly: asm,
		Backend:  backend,
		Importer: ioeffect.NewImporter(),
		Timings:  make(map[string]time.Duration),
	}
}

// Stack returns the current operand stack, bottom first.
func (v *VM) Stack() []array.Value { return append([]array.Value{}, v.stack...) }

// Run executes the whole assembly from instruction 0 until
// EndOfAssembly or an error.
func (v *VM) Run() error {
	return v.execRange(0, len(v.Assembly.Code))
}

func (v *VM) execRange(pc, end int) error {
	for pc < end {
		instr := v.Assembly.Code[pc]
		if instr.Op == bytecode.EndOfAssembly {
			return nil
		}
		var start time.Time
		if v.TimeInstrs {
			start = time.Now()
		}
		if err := v.step(instr); err != nil {
			return err
		}
		if v.TimeInstrs {
			v.Timings[instr.Prim] += time.Since(start)
		}
		pc++
	}
	return nil
}

func (v *VM) step(instr bytecode.Instr) error {
	switch instr.Op {
	case bytecode.PushConstant:
		v.push(v.Assembly.Constants[instr.Const])
		return nil
	case bytecode.PushFunction:
		// This runtime has no first-class function values outside of
		// modifier-operand position (those resolve directly via
		// ApplyModifier's embedded operand id list). A bare PushFunction
		// therefore runs its target eagerly rather than leaving a
		// reference on the stack.
		return v.callFunctionInline(instr.FuncID, instr.Span)
	case bytecode.CallFunction:
		return v.callFunctionInline(instr.FuncID, instr.Span)
	case bytecode.CallPrimitive:
		return v.callPrimitive(instr)
	case bytecode.ApplyModifier:
		return v.applyModifier(instr)
	case bytecode.CallIoOp:
		return v.callIoOp(instr)
	case bytecode.BindGlobal:
		val, err := v.pop1(instr.Span)
		if err != nil {
			return err
		}
		v.globals()[instr.Name] = val
		return nil
	case bytecode.LoadGlobal:
		val, ok := v.globals()[instr.Name]
		if !ok {
			return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "unbound global %q", instr.Name)
		}
		v.push(val)
		return nil
	case bytecode.MakeArray:
		return v.makeArray(instr)
	default:
		return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "unknown opcode %v", instr.Op)
	}
}

func (v *VM) globals() map[string]array.Value {
	if v.globalValues == nil {
		v.globalValues = make(map[string]array.Value)
	}
	return v.globalValues
}
