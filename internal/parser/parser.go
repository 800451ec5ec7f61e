// Package parser builds internal/ast trees from the token stream
// produced by internal/lexer. Line breaks are semantically significant:
// array and function literal bodies are line-structured, and a binding's
// right-hand side ends at the line's end.
package parser

import (
	"ua/internal/ast"
	uerrors "ua/internal/errors"
	"ua/internal/lexer"
	"ua/internal/primitive"
)

type Parser struct {
	tokens []lexer.Token
	pos    int
	path   string
	Errors []*uerrors.Error
}

func New(tokens []lexer.Token, path string) *Parser {
	return &Parser{tokens: tokens, path: path}
}

// Parse parses a whole program: a sequence of top-level items.
func (p *Parser) Parse() []ast.Item {
	return p.parseItems(lexer.TokenEOF)
}

func (p *Parser) errorf(span uerrors.Span, format string, args ...interface{}) {
	p.Errors = append(p.Errors, uerrors.New(uerrors.Parse, span, format, args...))
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Type != lexer.TokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) skipTrivia() {
	for p.cur().Type == lexer.TokenSpaces {
		p.advance()
	}
}

// parseItems parses items until it sees `stop` (not consumed) or EOF.
func (p *Parser) parseItems(stop lexer.TokenType) []ast.Item {
	var items []ast.Item
	blankRun := 0
	for {
		p.skipTrivia()
		t := p.cur()
		if t.Type == stop || t.Type == lexer.TokenEOF {
			return items
		}
		if t.Type == lexer.TokenNewline {
			p.advance()
			blankRun++
			if blankRun == 2 {
				items = append(items, ast.Item{Kind: ast.IExtraNewlines, Span: t.Span})
			}
			continue
		}
		blankRun = 0
		items = append(items, p.parseItem())
	}
}

func (p *Parser) parseItem() ast.Item {
	t := p.cur()
	switch {
	case t.Type == lexer.TokenLBrace:
		return p.parseScoped()
	case t.Type == lexer.TokenIdent && p.isBindingStart():
		return p.parseBinding()
	default:
		return p.parseWordsItem()
	}
}

// isBindingStart looks ahead, without consuming, to see whether the
// current line is `ident [sig] = words...`.
func (p *Parser) isBindingStart() bool {
	i := 1
	for {
		t := p.peekAt(i)
		switch t.Type {
		case lexer.TokenSpaces:
			i++
			continue
		case lexer.TokenPipe:
			// skip a `|in out|` signature
			i++
			for p.peekAt(i).Type != lexer.TokenPipe && p.peekAt(i).Type != lexer.TokenNewline && p.peekAt(i).Type != lexer.TokenEOF {
				i++
			}
			if p.peekAt(i).Type == lexer.TokenPipe {
				i++
			}
			continue
		case lexer.TokenEquals:
			return true
		default:
			return false
		}
	}
}

func (p *Parser) parseScoped() ast.Item {
	start := p.advance() // {
	p.skipTrivia()
	test := false
	if p.cur().Type == lexer.TokenIdent && p.cur().Lexeme == "test" {
		test = true
		p.advance()
	}
	items := p.parseItems(lexer.TokenRBrace)
	end := p.cur()
	if p.cur().Type == lexer.TokenRBrace {
		p.advance()
	} else {
		p.errorf(start.Span, "unterminated scoped block")
	}
	return ast.Item{Kind: ast.IScoped, Span: uerrors.Join(start.Span, end.Span), ScopedItems: items, Test: test}
}

func (p *Parser) parseBinding() ast.Item {
	name := p.advance()
	p.skipTrivia()
	var sig *ast.Signature
	if p.cur().Type == lexer.TokenPipe {
		sig = p.parseSignature()
	}
	p.skipTrivia()
	if p.cur().Type != lexer.TokenEquals {
		p.errorf(p.cur().Span, "expected '=' in binding for %q", name.Lexeme)
	} else {
		p.advance()
	}
	words := p.parseLine(lexer.TokenEOF)
	return ast.Item{
		Kind: ast.IBinding,
		Span: name.Span,
		Binding: &ast.Binding{
			Name:      name.Lexeme,
			NameSpan:  name.Span,
			Signature: sig,
			Words:     words,
		},
	}
}

func (p *Parser) parseSignature() *ast.Signature {
	p.advance() // |
	p.skipTrivia()
	in := p.expectNumber()
	p.skipTrivia()
	out := p.expectNumber()
	p.skipTrivia()
	if p.cur().Type == lexer.TokenPipe {
		p.advance()
	} else {
		p.errorf(p.cur().Span, "expected closing '|' in signature")
	}
	return &ast.Signature{Inputs: int(in), Outputs: int(out)}
}

func (p *Parser) expectNumber() float64 {
	if p.cur().Type != lexer.TokenNumber {
		p.errorf(p.cur().Span, "expected a number")
		return 0
	}
	return p.advance().Num
}

func (p *Parser) parseWordsItem() ast.Item {
	start := p.cur().Span
	words := p.parseLine(lexer.TokenEOF)
	return ast.Item{Kind: ast.IWords, Span: start, Words: words}
}

// parseLine parses words until a Newline, the given stop token, or EOF.
// The stop token (if matched) is left unconsumed; a trailing Newline is
// consumed.
func (p *Parser) parseLine(stop lexer.TokenType) []ast.Word {
	var words []ast.Word
	for {
		p.skipTrivia()
		t := p.cur()
		if t.Type == lexer.TokenNewline {
			p.advance()
			return words
		}
		if t.Type == lexer.TokenEOF || t.Type == stop {
			return words
		}
		words = append(words, p.parseStrandOrWord())
	}
}

// parseLinesUntil parses zero or more lines (each via parseLine) until
// `stop`, used for array/function literal bodies.
func (p *Parser) parseLinesUntil(stop lexer.TokenType) [][]ast.Word {
	var lines [][]ast.Word
	for {
		p.skipTrivia()
		if p.cur().Type == lexer.TokenNewline {
			p.advance()
			continue
		}
		if p.cur().Type == stop || p.cur().Type == lexer.TokenEOF {
			return lines
		}
		lines = append(lines, p.parseLine(stop))
	}
}

// parseStrandOrWord parses one word, then folds a run of `_`-joined
// words into a single Strand word.
func (p *Parser) parseStrandOrWord() ast.Word {
	first := p.parseWord()
	if p.cur().Type != lexer.TokenStrandSep {
		return first
	}
	strand := []ast.Word{first}
	span := first.Span
	for p.cur().Type == lexer.TokenStrandSep {
		p.advance()
		w := p.parseWord()
		span = uerrors.Join(span, w.Span)
		strand = append(strand, w)
	}
	return ast.Word{Kind: ast.KStrand, Span: span, Strand: strand}
}

func (p *Parser) parseWord() ast.Word {
	t := p.advance()
	switch t.Type {
	case lexer.TokenNumber:
		return ast.Word{Kind: ast.KNumber, Span: t.Span, NumberText: t.Lexeme, NumberVal: t.Num}
	case lexer.TokenChar:
		r := rune(0)
		if len(t.Lexeme) > 0 {
			r = []rune(t.Lexeme)[0]
		}
		return ast.Word{Kind: ast.KChar, Span: t.Span, CharVal: r}
	case lexer.TokenString:
		return ast.Word{Kind: ast.KString, Span: t.Span, StringVal: t.Lexeme}
	case lexer.TokenFormatString:
		return ast.Word{Kind: ast.KFormatString, Span: t.Span, Parts: t.Parts}
	case lexer.TokenMultilineString:
		parts := append([]string{}, t.Parts...)
		for p.cur().Type == lexer.TokenMultilineString {
			nt := p.advance()
			parts = append(parts, nt.Parts...)
		}
		return ast.Word{Kind: ast.KMultilineString, Span: t.Span, Parts: parts}
	case lexer.TokenComment:
		return ast.Word{Kind: ast.KComment, Span: t.Span, Text: t.Lexeme}
	case lexer.TokenIdent:
		return ast.Word{Kind: ast.KIdent, Span: t.Span, Text: t.Lexeme}
	case lexer.TokenPrimitive:
		return p.parsePrimitiveWord(t)
	case lexer.TokenLBracket:
		return p.parseArray(t)
	case lexer.TokenLParen:
		return p.parseFunc(t)
	default:
		p.errorf(t.Span, "unexpected token %s", t.Type)
		return ast.Word{Kind: ast.KComment, Span: t.Span, Text: ""}
	}
}

func (p *Parser) parsePrimitiveWord(t lexer.Token) ast.Word {
	desc, _ := primitive.Lookup(t.Lexeme)
	if p.cur().Type == lexer.TokenOceanSep {
		chain := []ast.Word{{Kind: ast.KPrimitive, Span: t.Span, Text: t.Lexeme}}
		span := t.Span
		for p.cur().Type == lexer.TokenOceanSep {
			p.advance()
			nt := p.advance()
			span = uerrors.Join(span, nt.Span)
			chain = append(chain, ast.Word{Kind: ast.KPrimitive, Span: nt.Span, Text: nt.Lexeme})
		}
		return ast.Word{Kind: ast.KOcean, Span: span, Ocean: chain}
	}
	if desc.IsModifier() && p.cur().Type == lexer.TokenLParen {
		p.advance() // (
		var operands []ast.Word
		for p.cur().Type != lexer.TokenRParen && p.cur().Type != lexer.TokenEOF {
			p.skipTrivia()
			if p.cur().Type == lexer.TokenRParen {
				break
			}
			operands = append(operands, p.parseStrandOrWord())
		}
		end := p.cur()
		if p.cur().Type == lexer.TokenRParen {
			p.advance()
		} else {
			p.errorf(t.Span, "unterminated modifier operand list for %q", t.Lexeme)
		}
		if len(operands) < desc.ModifierArity {
			p.errorf(t.Span, "modifier %q needs %d operand(s), got %d", t.Lexeme, desc.ModifierArity, len(operands))
		}
		terminated := false
		if p.cur().Type == lexer.TokenPipe {
			terminated = true
			p.advance()
		}
		return ast.Word{
			Kind: ast.KModified,
			Span: uerrors.Join(t.Span, end.Span),
			Modified: &ast.Modified{
				Modifier:   ast.Word{Kind: ast.KPrimitive, Span: t.Span, Text: t.Lexeme},
				Operands:   operands,
				Terminated: terminated,
			},
		}
	}
	return ast.Word{Kind: ast.KPrimitive, Span: t.Span, Text: t.Lexeme}
}

func (p *Parser) parseArray(open lexer.Token) ast.Word {
	constant := false
	p.skipTrivia()
	if p.cur().Type == lexer.TokenIdent && p.cur().Lexeme == "const" {
		constant = true
		p.advance()
	}
	lines := p.parseLinesUntil(lexer.TokenRBracket)
	end := p.cur()
	if p.cur().Type == lexer.TokenRBracket {
		p.advance()
	} else {
		p.errorf(open.Span, "unterminated array literal")
	}
	return ast.Word{
		Kind: ast.KArray,
		Span: uerrors.Join(open.Span, end.Span),
		Array: &ast.Arr{Lines: lines, Constant: constant},
	}
}

func (p *Parser) parseFunc(open lexer.Token) ast.Word {
	p.skipTrivia()
	var sig *ast.Signature
	if p.cur().Type == lexer.TokenPipe {
		sig = p.parseSignature()
	}
	lines := p.parseLinesUntil(lexer.TokenRParen)
	end := p.cur()
	if p.cur().Type == lexer.TokenRParen {
		p.advance()
	} else {
		p.errorf(open.Span, "unterminated function literal")
	}
	return ast.Word{
		Kind: ast.KFunc,
		Span: uerrors.Join(open.Span, end.Span),
		Func: &ast.Func{ID: ast.NewFunctionID(), Signature: sig, Lines: lines},
	}
}
