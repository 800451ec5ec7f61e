package vm

import (
	"ua/internal/array"
	"ua/internal/ast"
	"ua/internal/bytecode"
	uerrors "ua/internal/errors"
)

func errUnknownPrimitive(instr bytecode.Instr) error {
	return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "unknown primitive %q", instr.Prim)
}

func wrapRuntimeErr(err error, span bytecode.Span) error {
	return uerrors.Wrap(uerrors.Runtime, toErrSpan(span), err, "evaluating primitive")
}

// callFunctionInline executes a function body directly against the
// live operand stack: the caller's already-pushed operands are its
// inputs, and whatever remains after execution beyond the pre-call
// depth is its outputs. Used for CallFunction and (per the PushFunction
// design note in vm.go) PushFunction.
func (v *VM) callFunctionInline(id ast.FunctionID, span bytecode.Span) error {
	entry, ok := v.Assembly.Functions[id]
	if !ok {
		return uerrors.New(uerrors.Runtime, toErrSpan(span), "call to unknown function %s", id)
	}
	lenBefore := len(v.stack)
	v.frames = append(v.frames, frame{baseLen: lenBefore, sig: entry.Signature, span: span})
	defer func() { v.frames = v.frames[:len(v.frames)-1] }()

	if err := v.execRange(entry.Start, entry.Start+entry.Len); err != nil {
		return err
	}
	if entry.Signature != nil {
		net := len(v.stack) - lenBefore
		want := entry.Signature.Outputs - entry.Signature.Inputs
		if net != want {
			return &SignatureMismatchError{
				Want:   *entry.Signature,
				GotIn:  entry.Signature.Inputs,
				GotOut: entry.Signature.Inputs + net,
			}
		}
	}
	return nil
}

// callFuncWithArgs runs a function body with an explicit argument list
// rather than against whatever the surrounding stack happens to hold;
// used by modifiers (fold/reduce/scan/each/table), which control their
// operand function's inputs directly. It returns everything pushed
// beyond the pre-call depth.
func (v *VM) callFuncWithArgs(id ast.FunctionID, args []array.Value, span bytecode.Span) ([]array.Value, error) {
	entry, ok := v.Assembly.Functions[id]
	if !ok {
		return nil, uerrors.New(uerrors.Runtime, toErrSpan(span), "call to unknown function %s", id)
	}
	base := len(v.stack)
	v.stack = append(v.stack, args...)
	v.frames = append(v.frames, frame{baseLen: base, sig: entry.Signature, span: span})
	defer func() { v.frames = v.frames[:len(v.frames)-1] }()

	if err := v.execRange(entry.Start, entry.Start+entry.Len); err != nil {
		return nil, err
	}
	out := append([]array.Value{}, v.stack[base:]...)
	v.stack = v.stack[:base]
	return out, nil
}
