// Package primitive is the closed, enumerated primitive kernel: per-name
// declared stack arity plus, for pure primitives, the array semantics
// that implement them. Modifier primitives (ModifierArity > 0) are never
// dispatched from here directly — the compiler wraps them in
// ApplyModifier and the VM re-enters itself to run their operand
// functions on a schedule defined per modifier.
package primitive

import (
	"math"

	"ua/internal/array"
	uerrors "ua/internal/errors"
)

// Descriptor is one primitive's calling convention and (for pure
// primitives) its implementation.
type Descriptor struct {
	Name          string
	Inputs        int
	Outputs       int
	ModifierArity int // 0 for ordinary primitives
	// Eval is nil for modifier primitives and for the rank-adjustment
	// primitives used in Ocean chains; the VM runs those itself
	// (callRankAdjustment).
	Eval func(args []array.Value) ([]array.Value, error)
}

func (d Descriptor) IsModifier() bool { return d.ModifierArity > 0 }

// Table is the full set of known primitives, keyed by their textual
// (ASCII mnemonic) name.
var Table map[string]Descriptor

func reg(d Descriptor) { Table[d.Name] = d }

func init() {
	Table = make(map[string]Descriptor)

	binaryNum(
		"+", func(a, b float64) float64 { return a + b },
		"-", func(a, b float64) float64 { return a - b },
		"*", func(a, b float64) float64 { return a * b },
	)
	reg(Descriptor{Name: "/", Inputs: 2, Outputs: 1, Eval: wrapBinary(func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	})})
	reg(Descriptor{Name: "mod", Inputs: 2, Outputs: 1, Eval: wrapBinary(math.Mod)})
	reg(Descriptor{Name: "pow", Inputs: 2, Outputs: 1, Eval: wrapBinary(math.Pow)})

	cmp("=", func(a, b float64) bool { return a == b })
	cmp("!=", func(a, b float64) bool { return a != b })
	cmp("<", func(a, b float64) bool { return a < b })
	cmp(">", func(a, b float64) bool { return a > b })
	cmp("<=", func(a, b float64) bool { return a <= b })
	cmp(">=", func(a, b float64) bool { return a >= b })

	reg(Descriptor{Name: "dup", Inputs: 1, Outputs: 2, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{a[0], a[0]}, nil
	}})
	reg(Descriptor{Name: "drop", Inputs: 1, Outputs: 0, Eval: func(a []array.Value) ([]array.Value, error) {
		return nil, nil
	}})
	reg(Descriptor{Name: "swap", Inputs: 2, Outputs: 2, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{a[1], a[0]}, nil
	}})
	reg(Descriptor{Name: "over", Inputs: 2, Outputs: 3, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{a[0], a[1], a[0]}, nil
	}})

	reg(Descriptor{Name: "shape", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		shape := a[0].Shape()
		data := make([]float64, len(shape))
		for i, d := range shape {
			data[i] = float64(d)
		}
		return []array.Value{array.FromNums([]int{len(shape)}, data)}, nil
	}})
	reg(Descriptor{Name: "len", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		shape := a[0].Shape()
		n := 0
		if len(shape) > 0 {
			n = shape[0]
		}
		return []array.Value{array.ScalarNum(float64(n))}, nil
	}})
	reg(Descriptor{Name: "rank", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{array.ScalarNum(float64(a[0].Rank()))}, nil
	}})
	reg(Descriptor{Name: "reverse", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		rows, err := a[0].Rows()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		if len(rows) == 0 {
			return []array.Value{a[0]}, nil
		}
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		acc := reshapeRow(rows[0])
		for _, r := range rows[1:] {
			acc, err = array.ConcatenateAxis0(acc, reshapeRow(r))
			if err != nil {
				return nil, asRuntimeError(err)
			}
		}
		return []array.Value{acc}, nil
	}})
	reg(Descriptor{Name: "first", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		row, err := a[0].Row(0)
		if err != nil {
			return nil, asRuntimeError(err)
		}
		return []array.Value{row}, nil
	}})
	reg(Descriptor{Name: "concat", Inputs: 2, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		v, err := array.ConcatenateAxis0(a[0], a[1])
		if err != nil {
			return nil, asRuntimeError(err)
		}
		return []array.Value{v}, nil
	}})
	reg(Descriptor{Name: "reshape", Inputs: 2, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		shapeNums, err := a[0].Nums()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		shape := make([]int, len(shapeNums))
		for i, n := range shapeNums {
			shape[i] = int(n)
		}
		out, err := a[1].Reshape(shape)
		if err != nil {
			return nil, asRuntimeError(err)
		}
		return []array.Value{out}, nil
	}})
	reg(Descriptor{Name: "take", Inputs: 2, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		nNums, err := a[0].Nums()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		n := int(nNums[0])
		rows, err := a[1].Rows()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		if n < 0 {
			n = -n
			if n > len(rows) {
				n = len(rows)
			}
			rows = rows[len(rows)-n:]
		} else {
			if n > len(rows) {
				n = len(rows)
			}
			rows = rows[:n]
		}
		if len(rows) == 0 {
			return []array.Value{a[1]}, nil
		}
		acc := reshapeRow(rows[0])
		for _, r := range rows[1:] {
			acc, err = array.ConcatenateAxis0(acc, reshapeRow(r))
			if err != nil {
				return nil, asRuntimeError(err)
			}
		}
		return []array.Value{acc}, nil
	}})

	reg(Descriptor{Name: "box", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{a[0]}, nil
	}})
	reg(Descriptor{Name: "unbox", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{a[0]}, nil
	}})
	reg(Descriptor{Name: "type", Inputs: 1, Outputs: 1, Eval: func(a []array.Value) ([]array.Value, error) {
		return []array.Value{array.ScalarNum(float64(a[0].Kind()))}, nil
	}})

	// Modifiers: arity is the number of operand functions the compiler
	// must wrap into ApplyModifier. They carry no Eval — the VM executes
	// their operand functions directly.
	reg(Descriptor{Name: "fold", Inputs: 1, Outputs: 1, ModifierArity: 1})
	reg(Descriptor{Name: "reduce", Inputs: 1, Outputs: 1, ModifierArity: 1})
	reg(Descriptor{Name: "scan", Inputs: 1, Outputs: 1, ModifierArity: 1})
	reg(Descriptor{Name: "each", Inputs: 1, Outputs: 1, ModifierArity: 1})
	reg(Descriptor{Name: "table", Inputs: 2, Outputs: 1, ModifierArity: 1})
	reg(Descriptor{Name: "dip", Inputs: 1, Outputs: 1, ModifierArity: 1})

	// Rank-adjustment primitives, used bare or chained into an Ocean.
	reg(Descriptor{Name: "flip", Inputs: 1, Outputs: 1})
	reg(Descriptor{Name: "rows", Inputs: 1, Outputs: 1})
	reg(Descriptor{Name: "cells", Inputs: 1, Outputs: 1})
}

func reshapeRow(v array.Value) array.Value {
	shape := v.Shape()
	out, err := v.Reshape(append([]int{1}, shape...))
	if err != nil {
		return v
	}
	return out
}

func asRuntimeError(err error) error {
	return uerrors.New(uerrors.Runtime, uerrors.Span{}, "%v", err)
}

func wrapBinary(f func(a, b float64) float64) func([]array.Value) ([]array.Value, error) {
	return func(args []array.Value) ([]array.Value, error) {
		an, err := args[0].Nums()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		bn, err := args[1].Nums()
		if err != nil {
			return nil, asRuntimeError(err)
		}
		shape, err := array.BroadcastShapes(args[0].Shape(), args[1].Shape())
		if err != nil {
			return nil, asRuntimeError(err)
		}
		out := broadcastApply(shape, args[0].Shape(), an, args[1].Shape(), bn, f)
		return []array.Value{array.FromNums(shape, out)}, nil
	}
}

func broadcastApply(shape, shapeA []int, a []float64, shapeB []int, b []float64, f func(x, y float64) float64) []float64 {
	n := product(shape)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		ai, bi, sa, sb, rem := 0, 0, 1, 1, i
		for d := len(shape) - 1; d >= 0; d-- {
			idx := rem % shape[d]
			rem /= shape[d]
			if da := d - len(shape) + len(shapeA); da >= 0 {
				ai += idx % shapeA[da] * sa
				sa *= shapeA[da]
			}
			if db := d - len(shape) + len(shapeB); db >= 0 {
				bi += idx % shapeB[db] * sb
				sb *= shapeB[db]
			}
		}
		out[i] = f(a[ai], b[bi])
	}
	return out
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func binaryNum(pairs ...interface{}) {
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		f := pairs[i+1].(func(a, b float64) float64)
		reg(Descriptor{Name: name, Inputs: 2, Outputs: 1, Eval: wrapBinary(f)})
	}
}

func cmp(name string, f func(a, b float64) bool) {
	reg(Descriptor{Name: name, Inputs: 2, Outputs: 1, Eval: wrapBinary(func(a, b float64) float64 {
		if f(a, b) {
			return 1
		}
		return 0
	})})
}

// Lookup returns the descriptor for name, if it is a known primitive.
func Lookup(name string) (Descriptor, bool) {
	d, ok := Table[name]
	return d, ok
}
