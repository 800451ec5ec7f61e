// Package compiler lowers an internal/ast program into an
// internal/bytecode Assembly. Identifier resolution order is IO-op
// names first, then the primitive table, then global bindings (there
// are no lexical locals below the top level); an identifier matching
// none of those is a compile error.
//
// Function bodies are compiled after the main instruction stream: main
// code runs from offset 0 and stops at EndOfAssembly, and every
// function literal encountered along the way is queued and compiled
// into the trailing region of the same Code slice, so CallFunction is
// always a (Start, Len) slice lookup rather than a separate chunk.
package compiler

import (
	"ua/internal/array"
	"ua/internal/ast"
	"ua/internal/bytecode"
	uerrors "ua/internal/errors"
	"ua/internal/primitive"
)

type globalInfo struct {
	isFunc bool
	funcID ast.FunctionID
	sig    *ast.Signature
}

type pendingFunc struct {
	id    ast.FunctionID
	sig   *ast.Signature
	words []ast.Word
}

type Compiler struct {
	asm     *bytecode.Assembly
	globals map[string]globalInfo
	pending []pendingFunc
	Errors  []*uerrors.Error
}

func New() *Compiler {
	return &Compiler{asm: bytecode.NewAssembly(), globals: make(map[string]globalInfo)}
}

// Compile lowers a whole program into an Assembly. Errors are also
// returned on the Compiler so callers can inspect partial results.
func Compile(items []ast.Item) (*bytecode.Assembly, []*uerrors.Error) {
	c := New()
	for _, it := range items {
		c.compileItem(it)
	}
	c.asm.Emit(bytecode.Instr{Op: bytecode.EndOfAssembly})
	c.drainPending()
	return c.asm, c.Errors
}

func (c *Compiler) errorf(span uerrors.Span, format string, args ...interface{}) {
	c.Errors = append(c.Errors, uerrors.New(uerrors.Compile, span, format, args...))
}

func (c *Compiler) compileItem(it ast.Item) {
	switch it.Kind {
	case ast.IBinding:
		c.compileBinding(it.Binding)
	case ast.IWords:
		c.compileWords(it.Words)
	case ast.IScoped:
		start := len(c.asm.Code)
		for _, nested := range it.ScopedItems {
			c.compileItem(nested)
		}
		if it.Test {
			c.asm.TestBlocks = append(c.asm.TestBlocks, bytecode.TestBlock{
				Start: start,
				Len:   len(c.asm.Code) - start,
			})
		}
	case ast.IExtraNewlines:
		// purely formatting; no code
	}
}

func (c *Compiler) compileBinding(b *ast.Binding) {
	if len(b.Words) == 1 && b.Words[0].Kind == ast.KFunc {
		f := b.Words[0].Func
		sig := f.Signature
		if sig == nil {
			sig = b.Signature
		}
		c.globals[b.Name] = globalInfo{isFunc: true, funcID: f.ID, sig: sig}
		c.enqueueFunc(f.ID, sig, flatten(f.Lines))
		return
	}
	start := len(c.asm.Code)
	c.compileWords(b.Words)
	c.asm.Symbols[b.Name] = start
	c.globals[b.Name] = globalInfo{isFunc: false, sig: b.Signature}
	c.asm.Emit(bytecode.Instr{Op: bytecode.BindGlobal, Name: b.Name, Span: spanOf(b.NameSpan)})
}

func flatten(lines [][]ast.Word) []ast.Word {
	var out []ast.Word
	for _, line := range lines {
		out = append(out, line...)
	}
	return out
}

func spanOf(s uerrors.Span) bytecode.Span {
	return bytecode.Span{File: s.File, Line: s.StartLine, Col: s.StartCol}
}

func (c *Compiler) enqueueFunc(id ast.FunctionID, sig *ast.Signature, words []ast.Word) {
	c.pending = append(c.pending, pendingFunc{id: id, sig: sig, words: words})
}

func (c *Compiler) drainPending() {
	for len(c.pending) > 0 {
		pf := c.pending[0]
		c.pending = c.pending[1:]
		start := len(c.asm.Code)
		c.compileWords(pf.words)
		c.asm.Functions[pf.id] = bytecode.FuncEntry{ID: pf.id, Start: start, Len: len(c.asm.Code) - start, Signature: pf.sig}
	}
}

func (c *Compiler) compileWords(words []ast.Word) {
	for _, w := range words {
		c.compileWord(w)
	}
}

func (c *Compiler) compileWord(w ast.Word) {
	switch w.Kind {
	case ast.KNumber:
		idx := c.asm.AddConstant(array.ScalarNum(w.NumberVal))
		c.asm.Emit(bytecode.Instr{Op: bytecode.PushConstant, Const: idx, Span: spanOf(w.Span)})
	case ast.KChar:
		idx := c.asm.AddConstant(array.ScalarChar(w.CharVal))
		c.asm.Emit(bytecode.Instr{Op: bytecode.PushConstant, Const: idx, Span: spanOf(w.Span)})
	case ast.KString:
		idx := c.asm.AddConstant(array.FromString(w.StringVal))
		c.asm.Emit(bytecode.Instr{Op: bytecode.PushConstant, Const: idx, Span: spanOf(w.Span)})
	case ast.KMultilineString:
		text := joinLines(w.Parts)
		idx := c.asm.AddConstant(array.FromString(text))
		c.asm.Emit(bytecode.Instr{Op: bytecode.PushConstant, Const: idx, Span: spanOf(w.Span)})
	case ast.KFormatString:
		c.asm.Emit(bytecode.Instr{Op: bytecode.CallIoOp, IoOp: "format", Parts: w.Parts, Const: len(w.Parts) - 1, Span: spanOf(w.Span)})
	case ast.KIdent:
		c.compileIdent(w)
	case ast.KStrand:
		for _, sw := range w.Strand {
			c.compileWord(sw)
		}
		c.asm.Emit(bytecode.Instr{Op: bytecode.MakeArray, Const: len(w.Strand), Span: spanOf(w.Span)})
	case ast.KArray:
		c.compileArray(w)
	case ast.KFunc:
		c.asm.Emit(bytecode.Instr{Op: bytecode.PushFunction, FuncID: w.Func.ID, Span: spanOf(w.Span)})
		c.enqueueFunc(w.Func.ID, w.Func.Signature, flatten(w.Func.Lines))
	case ast.KOcean:
		for _, p := range w.Ocean {
			c.asm.Emit(bytecode.Instr{Op: bytecode.CallPrimitive, Prim: p.Text, Span: spanOf(p.Span)})
		}
	case ast.KPrimitive:
		c.compilePrimitive(w)
	case ast.KModified:
		c.compileModified(w)
	case ast.KComment, ast.KSpaces:
		// no code
	}
}

// ioOpNames is the set of IoOp mnemonics (spec.md §4.8): these resolve
// to CallIoOp rather than CallPrimitive or a global lookup. They live
// outside the primitive table because they're effectful and dispatched
// through internal/ioeffect.Backend, not through primitive.Descriptor.
var ioOpNames = map[string]bool{
	"show": true, "print": true, "println": true,
	"scanln": true, "args": true, "var": true, "rand": true, "now": true,
	"freadstr": true, "freadbytes": true, "flines": true,
	"fwritestr": true, "fwritebytes": true,
	"fexists": true, "fisfile": true, "flistdir": true,
	"import": true, "imread": true, "imwrite": true, "imshow": true,
}

func (c *Compiler) compileIdent(w ast.Word) {
	if ioOpNames[w.Text] {
		c.asm.Emit(bytecode.Instr{Op: bytecode.CallIoOp, IoOp: w.Text, Span: spanOf(w.Span)})
		return
	}
	if desc, ok := primitive.Lookup(w.Text); ok {
		c.emitPrimitiveRef(w.Text, desc, w.Span)
		return
	}
	g, ok := c.globals[w.Text]
	if !ok {
		c.errorf(w.Span, "undefined name %q", w.Text)
		return
	}
	if g.isFunc {
		c.asm.Emit(bytecode.Instr{Op: bytecode.CallFunction, FuncID: g.funcID, Span: spanOf(w.Span)})
		return
	}
	c.asm.Emit(bytecode.Instr{Op: bytecode.LoadGlobal, Name: w.Text, Span: spanOf(w.Span)})
}

func (c *Compiler) compilePrimitive(w ast.Word) {
	desc, ok := primitive.Lookup(w.Text)
	if !ok {
		c.errorf(w.Span, "unknown primitive %q", w.Text)
		return
	}
	c.emitPrimitiveRef(w.Text, desc, w.Span)
}

func (c *Compiler) emitPrimitiveRef(name string, desc primitive.Descriptor, span uerrors.Span) {
	if desc.IsModifier() {
		c.errorf(span, "modifier %q used without operands", name)
		return
	}
	c.asm.Emit(bytecode.Instr{Op: bytecode.CallPrimitive, Prim: name, Span: spanOf(span)})
}

func (c *Compiler) compileArray(w ast.Word) {
	for _, line := range w.Array.Lines {
		c.compileWords(line)
		c.asm.Emit(bytecode.Instr{Op: bytecode.MakeArray, Const: len(line), Span: spanOf(w.Span)})
	}
	rows := len(w.Array.Lines)
	if rows != 1 {
		c.asm.Emit(bytecode.Instr{Op: bytecode.MakeArray, Const: rows, Span: spanOf(w.Span)})
	}
}

// compileModified resolves the modifier's operand to a single callable
// function id, then emits ApplyModifier. All our modifiers declare
// ModifierArity 1, so every word between the modifier's parens belongs
// to one operand function body (`each(dup +)` is one two-primitive
// function, not two one-primitive ones) — the same convention as a
// parenthesized function literal, just without the parens being a
// second, nested pair.
func (c *Compiler) compileModified(w ast.Word) {
	m := w.Modified
	desc, ok := primitive.Lookup(m.Modifier.Text)
	if !ok || !desc.IsModifier() {
		c.errorf(w.Span, "%q is not a modifier", m.Modifier.Text)
		return
	}
	if desc.ModifierArity != 1 {
		c.errorf(w.Span, "modifier %q has unsupported arity %d", m.Modifier.Text, desc.ModifierArity)
		return
	}
	id := c.operandFuncID(m.Operands)
	c.asm.Emit(bytecode.Instr{Op: bytecode.ApplyModifier, Prim: m.Modifier.Text, Operands: []ast.FunctionID{id}, Span: spanOf(w.Span)})
}

// operandFuncID resolves a modifier's operand words to one function id.
// A lone reference to an already-bound function (by name or as a
// nested function literal) is reused directly; anything else is
// wrapped into a fresh synthetic function body.
func (c *Compiler) operandFuncID(words []ast.Word) ast.FunctionID {
	if len(words) == 1 {
		op := words[0]
		switch op.Kind {
		case ast.KFunc:
			c.enqueueFunc(op.Func.ID, op.Func.Signature, flatten(op.Func.Lines))
			return op.Func.ID
		case ast.KIdent:
			if g, ok := c.globals[op.Text]; ok && g.isFunc {
				return g.funcID
			}
		}
	}
	id := ast.NewFunctionID()
	c.enqueueFunc(id, nil, words)
	return id
}

func joinLines(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}
