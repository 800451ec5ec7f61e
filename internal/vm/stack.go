package vm

import (
	"ua/internal/array"
	"ua/internal/bytecode"
	"ua/internal/primitive"
)

func (v *VM) push(val array.Value) { v.stack = append(v.stack, val) }

func (v *VM) pop1(span bytecode.Span) (array.Value, error) {
	if len(v.stack) < 1 {
		return array.Value{}, &StackUnderflowError{Need: 1, Got: len(v.stack), Span: span}
	}
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val, nil
}

// popN pops n values, returning them topmost-first: out[0] is the value
// that was on top of the stack, out[n-1] the deepest of the n popped.
func (v *VM) popN(n int, span bytecode.Span) ([]array.Value, error) {
	if len(v.stack) < n {
		return nil, &StackUnderflowError{Need: n, Got: len(v.stack), Span: span}
	}
	out := make([]array.Value, n)
	for i := 0; i < n; i++ {
		out[i] = v.stack[len(v.stack)-1-i]
	}
	v.stack = v.stack[:len(v.stack)-n]
	return out, nil
}

func (v *VM) callPrimitive(instr bytecode.Instr) error {
	desc, ok := primitive.Lookup(instr.Prim)
	if !ok {
		return errUnknownPrimitive(instr)
	}
	if desc.Eval == nil {
		return v.callRankAdjustment(instr.Prim, instr.Span)
	}
	args, err := v.popInOrder(desc.Inputs, instr.Span)
	if err != nil {
		return err
	}
	out, err := desc.Eval(args)
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	for _, o := range out {
		v.push(o)
	}
	return nil
}

// popInOrder pops n values and returns them in original (source) push
// order, the convention pure primitive Eval functions expect.
func (v *VM) popInOrder(n int, span bytecode.Span) ([]array.Value, error) {
	raw, err := v.popN(n, span)
	if err != nil {
		return nil, err
	}
	out := make([]array.Value, n)
	for i, a := range raw {
		out[n-1-i] = a
	}
	return out, nil
}

func (v *VM) makeArray(instr bytecode.Instr) error {
	n := instr.Const
	if n == 0 {
		v.push(array.FromNums([]int{0}, nil))
		return nil
	}
	vals, err := v.popInOrder(n, instr.Span)
	if err != nil {
		return err
	}
	out, err := stackAsRows(vals)
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	v.push(out)
	return nil
}

// stackAsRows builds one array whose outermost axis has one row per
// element of vals, each reshaped to carry a leading axis of 1 before
// being concatenated. This is the single operation behind both
// per-line array-literal packing and strand/cross-line row-stacking.
func stackAsRows(vals []array.Value) (array.Value, error) {
	acc, err := reshapeAsRow(vals[0])
	if err != nil {
		return array.Value{}, err
	}
	for _, val := range vals[1:] {
		row, err := reshapeAsRow(val)
		if err != nil {
			return array.Value{}, err
		}
		acc, err = array.ConcatenateAxis0(acc, row)
		if err != nil {
			return array.Value{}, err
		}
	}
	return acc, nil
}

func reshapeAsRow(v array.Value) (array.Value, error) {
	return v.Reshape(append([]int{1}, v.Shape()...))
}
