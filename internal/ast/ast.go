// Package ast is the parsed program tree produced by internal/parser and
// consumed by internal/compiler and internal/formatter. Word is a closed
// sum type; dispatch over it is by switching on Kind, not by interface
// method sets, per the "sum types over inheritance" design note.
package ast

import (
	"github.com/google/uuid"

	uerrors "ua/internal/errors"
)

// FunctionID is a stable, comparable identity for a function literal.
// It is minted once per literal at parse time (see NewFunctionID) and
// never recomputed from content, so two textually identical function
// literals parsed separately still get distinct ids; the compiler keys
// each literal's compiled body by this id and does not dedupe by value.
type FunctionID string

// NewFunctionID mints a fresh identity for a function literal.
func NewFunctionID() FunctionID {
	return FunctionID(uuid.NewString())
}

// Signature declares a function or binding's expected stack arity.
type Signature struct {
	Inputs  int
	Outputs int
}

// WordKind enumerates the cases of Word.
type WordKind int

const (
	KNumber WordKind = iota
	KChar
	KString
	KFormatString
	KMultilineString
	KIdent
	KStrand
	KArray
	KFunc
	KOcean
	KPrimitive
	KModified
	KComment
	KSpaces
)

func (k WordKind) String() string {
	names := [...]string{
		"Number", "Char", "String", "FormatString", "MultilineString",
		"Ident", "Strand", "Array", "Func", "Ocean", "Primitive",
		"Modified", "Comment", "Spaces",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Word is one lexical unit of a line. Only the fields relevant to Kind
// are populated; this mirrors a tagged union more than a fully-generic
// interface hierarchy, matching the closed, enumerable nature of the
// surface grammar.
type Word struct {
	Kind WordKind
	Span uerrors.Span

	// KNumber
	NumberText string
	NumberVal  float64

	// KChar
	CharVal rune

	// KString
	StringVal string

	// KFormatString / KMultilineString: the literal text segments
	// between substitution holes, preserved verbatim.
	Parts []string

	// KIdent / KPrimitive / KComment
	Text string

	// KStrand
	Strand []Word

	// KArray
	Array *Arr

	// KFunc
	Func *Func

	// KOcean: a chain of rank-adjustment primitive names, applied as a
	// group and kept together purely so the formatter can render them
	// without interleaving spaces.
	Ocean []Word

	// KModified
	Modified *Modified
}

// Arr is an array literal: a list of lines of words, each line
// contributing one or more stack values to the array being built.
// Constant marks a literal the compiler may fold entirely at compile
// time (all elements are themselves compile-time constants).
type Arr struct {
	Lines    [][]Word
	Constant bool
}

// Func is a function literal: a stable id, an optional declared
// signature, and a body of lines of words.
type Func struct {
	ID        FunctionID
	Signature *Signature
	Lines     [][]Word
}

// Modified is a modifier applied to a fixed number of operand words.
// Terminated distinguishes `f g x` (g may still consume x as a further
// operand) from `f g|` (the modifier's operand list is closed
// immediately and x, if any follows, is not part of it).
type Modified struct {
	Modifier   Word
	Operands   []Word
	Terminated bool
}

// ItemKind enumerates the cases of Item.
type ItemKind int

const (
	IScoped ItemKind = iota
	IWords
	IBinding
	IExtraNewlines
)

// Item is one top-level (or block-nested) program element.
type Item struct {
	Kind ItemKind
	Span uerrors.Span

	// IScoped
	ScopedItems []Item
	Test        bool

	// IWords
	Words []Word

	// IBinding
	Binding *Binding
}

// Binding is `name [signature] = words...`.
type Binding struct {
	Name      string
	NameSpan  uerrors.Span
	Signature *Signature
	Words     []Word
}
