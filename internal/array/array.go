// Package array implements Value, the runtime's sole data type: a
// rank-N array of numbers, bytes, or characters, unified behind a shape
// and a typed element buffer.
package array

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the element type carried by a Value's buffer.
type Kind int

const (
	Num Kind = iota
	Byte
	Char
)

func (k Kind) String() string {
	switch k {
	case Num:
		return "number"
	case Byte:
		return "byte"
	case Char:
		return "character"
	default:
		return "unknown"
	}
}

// Value is a rank-N array. Exactly one of nums/bytes/chars is populated,
// selected by kind. Values are treated as immutable by identity: every
// operation below that "changes" a Value returns a new one.
type Value struct {
	shape []int
	kind  Kind
	nums  []float64
	bytes []byte
	chars []rune
}

// ShapeMismatchError is raised when two arrays can't be combined because
// their shapes don't agree (after broadcasting, where applicable).
type ShapeMismatchError struct {
	A, B []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %v vs %v", e.A, e.B)
}

// TypeMismatchError is raised when an operation requires one element
// kind but receives another (e.g. a path argument that isn't characters).
type TypeMismatchError struct {
	Want, Got Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Want, e.Got)
}

// RankTooLowError is raised when an operation needs at least rank N (e.g.
// row iteration needs rank >= 1) but the value has lower rank.
type RankTooLowError struct {
	Want, Got int
}

func (e *RankTooLowError) Error() string {
	return fmt.Sprintf("rank too low: need at least %d, got %d", e.Want, e.Got)
}

// IndexOutOfRangeError is raised by indexed access outside a value's
// outermost-axis bounds.
type IndexOutOfRangeError struct {
	Index, Len int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: %d (len %d)", e.Index, e.Len)
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func cloneShape(shape []int) []int {
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}

// Scalar constructors. A scalar has rank 0: an empty shape and a
// one-element buffer.
func ScalarNum(n float64) Value  { return Value{kind: Num, nums: []float64{n}} }
func ScalarByte(b byte) Value    { return Value{kind: Byte, bytes: []byte{b}} }
func ScalarChar(c rune) Value    { return Value{kind: Char, chars: []rune{c}} }
func Bool(b bool) Value {
	if b {
		return ScalarNum(1)
	}
	return ScalarNum(0)
}

// FromNums builds a numeric array from shape and flat data. It panics if
// product(shape) != len(data); callers constructing from parsed literals
// are expected to have already validated this (see NewNums for the
// checked form used at API boundaries).
func FromNums(shape []int, data []float64) Value {
	v, err := NewNums(shape, data)
	if err != nil {
		panic(err)
	}
	return v
}

func NewNums(shape []int, data []float64) (Value, error) {
	if product(shape) != len(data) {
		return Value{}, fmt.Errorf("shape %v does not match buffer length %d", shape, len(data))
	}
	return Value{shape: cloneShape(shape), kind: Num, nums: data}, nil
}

func NewBytes(shape []int, data []byte) (Value, error) {
	if product(shape) != len(data) {
		return Value{}, fmt.Errorf("shape %v does not match buffer length %d", shape, len(data))
	}
	return Value{shape: cloneShape(shape), kind: Byte, bytes: data}, nil
}

func NewChars(shape []int, data []rune) (Value, error) {
	if product(shape) != len(data) {
		return Value{}, fmt.Errorf("shape %v does not match buffer length %d", shape, len(data))
	}
	return Value{shape: cloneShape(shape), kind: Char, chars: data}, nil
}

// FromString builds a rank-1 character array from a Go string.
func FromString(s string) Value {
	return Value{shape: []int{len([]rune(s))}, kind: Char, chars: []rune(s)}
}

// FromStringRows returns one character-array Value per string, as a Go
// slice: a rank-1 array whose elements are themselves character arrays
// is not representable in a uniform buffer, so the IO layer hands a
// "1-D array of strings" around in this form.
func FromStringRows(rows []string) []Value {
	out := make([]Value, len(rows))
	for i, s := range rows {
		out[i] = FromString(s)
	}
	return out
}

func (v Value) Rank() int   { return len(v.shape) }
func (v Value) Shape() []int { return cloneShape(v.shape) }
func (v Value) Kind() Kind   { return v.kind }
func (v Value) Len() int {
	switch v.kind {
	case Num:
		return len(v.nums)
	case Byte:
		return len(v.bytes)
	default:
		return len(v.chars)
	}
}

func (v Value) IsScalar() bool { return v.Rank() == 0 }
func (v Value) IsChars() bool  { return v.kind == Char }
func (v Value) IsNums() bool   { return v.kind == Num }
func (v Value) IsBytes() bool  { return v.kind == Byte }

// Nums returns the flat numeric buffer, widening bytes to float64. It
// returns a TypeMismatchError for character arrays: chars never
// implicitly widen to numbers.
func (v Value) Nums() ([]float64, error) {
	switch v.kind {
	case Num:
		return v.nums, nil
	case Byte:
		out := make([]float64, len(v.bytes))
		for i, b := range v.bytes {
			out[i] = float64(b)
		}
		return out, nil
	default:
		return nil, &TypeMismatchError{Want: Num, Got: v.kind}
	}
}

// Bytes widens a numeric array to bytes using floor-and-clamp, or passes
// a byte array through unchanged. It is a TypeMismatchError for chars.
func (v Value) Bytes() ([]byte, error) {
	switch v.kind {
	case Byte:
		return v.bytes, nil
	case Num:
		out := make([]byte, len(v.nums))
		for i, n := range v.nums {
			out[i] = ClampByte(n)
		}
		return out, nil
	default:
		return nil, &TypeMismatchError{Want: Byte, Got: v.kind}
	}
}

// Chars returns the flat rune buffer. TypeMismatchError for non-char
// arrays: numbers and bytes never implicitly become characters.
func (v Value) Chars() ([]rune, error) {
	if v.kind != Char {
		return nil, &TypeMismatchError{Want: Char, Got: v.kind}
	}
	return v.chars, nil
}

// ClampByte implements the spec's byte-coercion rule: floor(x) for
// non-negative reals, clamped to [0,255].
func ClampByte(x float64) byte {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	f := math.Floor(x)
	if f > 255 {
		return 255
	}
	return byte(f)
}

// String decodes a character array as UTF-8 text. It never fails:
// number and byte arrays are rendered with %v slice formatting. AsPath
// is the checked form that raises TypeMismatch for non-char arrays.
func (v Value) String() string {
	switch v.kind {
	case Char:
		return string(v.chars)
	case Num:
		var b strings.Builder
		fmt.Fprintf(&b, "%v", v.nums)
		return b.String()
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%v", v.bytes)
		return b.String()
	}
}

// AsPath decodes a character array into a path string, the rule the VM
// applies whenever an IO op expects a string argument.
func (v Value) AsPath() (string, error) {
	if !v.IsChars() {
		return "", &TypeMismatchError{Want: Char, Got: v.kind}
	}
	return string(v.chars), nil
}

// Reshape returns a new Value with the given shape over the same
// element kind and buffer, rejecting a product mismatch.
func (v Value) Reshape(shape []int) (Value, error) {
	if product(shape) != v.Len() {
		return Value{}, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			v.shape, v.Len(), shape, product(shape))
	}
	out := v
	out.shape = cloneShape(shape)
	return out, nil
}

// Row returns the rank-1-lower slice at index i along the outermost
// axis. RankTooLow if v is a scalar; IndexOutOfRange if i is outside
// v.shape[0].
func (v Value) Row(i int) (Value, error) {
	if v.Rank() < 1 {
		return Value{}, &RankTooLowError{Want: 1, Got: 0}
	}
	if i < 0 || i >= v.shape[0] {
		return Value{}, &IndexOutOfRangeError{Index: i, Len: v.shape[0]}
	}
	rowShape := cloneShape(v.shape[1:])
	rowLen := product(rowShape)
	start := i * rowLen
	end := start + rowLen
	switch v.kind {
	case Num:
		return Value{shape: rowShape, kind: Num, nums: v.nums[start:end]}, nil
	case Byte:
		return Value{shape: rowShape, kind: Byte, bytes: v.bytes[start:end]}, nil
	default:
		return Value{shape: rowShape, kind: Char, chars: v.chars[start:end]}, nil
	}
}

// Rows iterates the rank-1-lower slices along the outermost axis.
func (v Value) Rows() ([]Value, error) {
	if v.Rank() < 1 {
		return nil, &RankTooLowError{Want: 1, Got: 0}
	}
	rows := make([]Value, v.shape[0])
	for i := range rows {
		row, err := v.Row(i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// ConcatenateAxis0 joins a and b along the outermost axis. Their shapes
// must match on every other axis.
func ConcatenateAxis0(a, b Value) (Value, error) {
	if a.kind != b.kind {
		return Value{}, &TypeMismatchError{Want: a.kind, Got: b.kind}
	}
	if len(a.shape) != len(b.shape) {
		return Value{}, &ShapeMismatchError{A: a.shape, B: b.shape}
	}
	for i := 1; i < len(a.shape); i++ {
		if a.shape[i] != b.shape[i] {
			return Value{}, &ShapeMismatchError{A: a.shape, B: b.shape}
		}
	}
	outShape := cloneShape(a.shape)
	if len(outShape) == 0 {
		outShape = []int{2}
	} else {
		outShape[0] = a.shape[0] + b.shape[0]
	}
	switch a.kind {
	case Num:
		data := append(append([]float64{}, a.nums...), b.nums...)
		return Value{shape: outShape, kind: Num, nums: data}, nil
	case Byte:
		data := append(append([]byte{}, a.bytes...), b.bytes...)
		return Value{shape: outShape, kind: Byte, bytes: data}, nil
	default:
		data := append(append([]rune{}, a.chars...), b.chars...)
		return Value{shape: outShape, kind: Char, chars: data}, nil
	}
}

// Equal compares shape and, element-wise, value. Byte and number arrays
// compare by numeric value (widening bytes), so a byte 3 equals a
// number 3.0; chars only equal chars.
func (v Value) Equal(o Value) bool {
	if len(v.shape) != len(o.shape) {
		return false
	}
	for i := range v.shape {
		if v.shape[i] != o.shape[i] {
			return false
		}
	}
	if v.kind == Char || o.kind == Char {
		if v.kind != o.kind {
			return false
		}
		if len(v.chars) != len(o.chars) {
			return false
		}
		for i := range v.chars {
			if v.chars[i] != o.chars[i] {
				return false
			}
		}
		return true
	}
	vn, _ := v.Nums()
	on, _ := o.Nums()
	if len(vn) != len(on) {
		return false
	}
	for i := range vn {
		if vn[i] != on[i] {
			return false
		}
	}
	return true
}

// BroadcastShapes implements the spec's broadcasting rule: prepend ones
// to the shorter shape, then each dimension must be equal or one.
func BroadcastShapes(a, b []int) ([]int, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	pa := prepend(a, n)
	pb := prepend(b, n)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		switch {
		case pa[i] == pb[i]:
			out[i] = pa[i]
		case pa[i] == 1:
			out[i] = pb[i]
		case pb[i] == 1:
			out[i] = pa[i]
		default:
			return nil, &ShapeMismatchError{A: a, B: b}
		}
	}
	return out, nil
}

func prepend(shape []int, n int) []int {
	out := make([]int, n)
	pad := n - len(shape)
	for i := 0; i < pad; i++ {
		out[i] = 1
	}
	copy(out[pad:], shape)
	return out
}

// invariant (spec §8 #1): product(shape) must equal len(buffer) for
// every constructed Value. CheckInvariant re-verifies it; the array
// tests call it.
func (v Value) CheckInvariant() error {
	if product(v.shape) != v.Len() {
		return fmt.Errorf("shape invariant violated: shape %v product %d != buffer length %d",
			v.shape, product(v.shape), v.Len())
	}
	return nil
}
