package vm

import (
	"ua/internal/array"
	"ua/internal/bytecode"
	uerrors "ua/internal/errors"
)

func (v *VM) applyModifier(instr bytecode.Instr) error {
	switch instr.Prim {
	case "fold", "reduce":
		return v.modFold(instr, false)
	case "scan":
		return v.modFold(instr, true)
	case "each":
		return v.modEach(instr)
	case "table":
		return v.modTable(instr)
	case "dip":
		return v.modDip(instr)
	default:
		return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "unknown modifier %q", instr.Prim)
	}
}

// modFold reduces an array to a single value by repeatedly calling the
// operand function on (accumulator, next row). If keepHistory is set
// (scan), every intermediate accumulator is collected into the result
// instead of only the last.
func (v *VM) modFold(instr bytecode.Instr, keepHistory bool) error {
	arg, err := v.pop1(instr.Span)
	if err != nil {
		return err
	}
	rows, err := arg.Rows()
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	if len(rows) == 0 {
		v.push(arg)
		return nil
	}
	acc := rows[0]
	history := []array.Value{acc}
	for _, row := range rows[1:] {
		out, err := v.callFuncWithArgs(instr.Operands[0], []array.Value{acc, row}, instr.Span)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "fold operand produced no output")
		}
		acc = out[len(out)-1]
		history = append(history, acc)
	}
	if keepHistory {
		stacked, err := stackAsRows(history)
		if err != nil {
			return wrapRuntimeErr(err, instr.Span)
		}
		v.push(stacked)
		return nil
	}
	v.push(acc)
	return nil
}

// modEach calls the operand function once per row of the popped array
// and stacks the results back into an array with the same row count.
func (v *VM) modEach(instr bytecode.Instr) error {
	arg, err := v.pop1(instr.Span)
	if err != nil {
		return err
	}
	rows, err := arg.Rows()
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	results := make([]array.Value, 0, len(rows))
	for _, row := range rows {
		out, err := v.callFuncWithArgs(instr.Operands[0], []array.Value{row}, instr.Span)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "each operand produced no output")
		}
		results = append(results, out[len(out)-1])
	}
	if len(results) == 0 {
		v.push(arg)
		return nil
	}
	stacked, err := stackAsRows(results)
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	v.push(stacked)
	return nil
}

// modTable builds the outer-product table of two arrays under the
// operand function: result[i][j] = f(a[i], b[j]).
func (v *VM) modTable(instr bytecode.Instr) error {
	args, err := v.popInOrder(2, instr.Span)
	if err != nil {
		return err
	}
	a, b := args[0], args[1]
	rowsA, err := a.Rows()
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	rowsB, err := b.Rows()
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	var allRows []array.Value
	for _, ra := range rowsA {
		var cells []array.Value
		for _, rb := range rowsB {
			out, err := v.callFuncWithArgs(instr.Operands[0], []array.Value{ra, rb}, instr.Span)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				return uerrors.New(uerrors.Runtime, toErrSpan(instr.Span), "table operand produced no output")
			}
			cells = append(cells, out[len(out)-1])
		}
		rowVal, err := stackAsRows(cells)
		if err != nil {
			return wrapRuntimeErr(err, instr.Span)
		}
		allRows = append(allRows, rowVal)
	}
	result, err := stackAsRows(allRows)
	if err != nil {
		return wrapRuntimeErr(err, instr.Span)
	}
	v.push(result)
	return nil
}

// modDip sets aside the top stack value, runs the operand on what's
// beneath it, then restores the set-aside value on top.
func (v *VM) modDip(instr bytecode.Instr) error {
	top, err := v.pop1(instr.Span)
	if err != nil {
		return err
	}
	if err := v.callFunctionInline(instr.Operands[0], instr.Span); err != nil {
		return err
	}
	v.push(top)
	return nil
}

// callRankAdjustment implements the three Ocean-chain primitives that
// carry no Eval in the primitive table. flip reverses the outermost
// axis (its own row reversal over stackAsRows); rows and cells are reserved
// for finer-grained rank iteration this runtime doesn't yet need beyond
// what each/table already provide, so they pass their argument through
// unchanged.
func (v *VM) callRankAdjustment(name string, span bytecode.Span) error {
	arg, err := v.pop1(span)
	if err != nil {
		return err
	}
	switch name {
	case "flip":
		rows, err := arg.Rows()
		if err != nil {
			v.push(arg)
			return nil
		}
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		out, err := stackAsRows(rows)
		if err != nil {
			return wrapRuntimeErr(err, span)
		}
		v.push(out)
		return nil
	case "rows", "cells":
		v.push(arg)
		return nil
	default:
		return uerrors.New(uerrors.Runtime, toErrSpan(span), "unknown rank-adjustment primitive %q", name)
	}
}
