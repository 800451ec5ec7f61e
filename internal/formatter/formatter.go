// Package formatter re-emits canonical source text from parsed source,
// satisfying format(format(s)) == format(s). Configuration for where a
// format config file lives is tri-valued: search upward from a starting
// directory for fmt.ua, use built-in defaults, or load an explicit
// path.
package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ua/internal/ast"
	"ua/internal/lexer"
	"ua/internal/parser"
)

// SourceKind distinguishes the three ways a format configuration can be
// located.
type SourceKind int

const (
	SearchFile SourceKind = iota
	Default
	Explicit
)

// Config is format-time configuration. Only Indent is read today;
// ExplicitPath/SourceKind exist so the driver can describe where a
// config file search should start or which file to load outright.
type Config struct {
	Kind         SourceKind
	ExplicitPath string
	Indent       string
}

func DefaultConfig() Config {
	return Config{Kind: Default, Indent: "  "}
}

// LoadConfig resolves a Config per Kind: SearchFile walks upward from
// startDir looking for fmt.ua (an indent-only key/value file, unknown
// keys ignored); Default returns built-in defaults; Explicit loads
// ExplicitPath directly. A search or explicit load that can't find a
// file falls back to defaults rather than erroring, since a missing
// fmt.ua is the common case, not a user mistake.
func LoadConfig(kind SourceKind, startDir, explicitPath string) (Config, error) {
	switch kind {
	case Explicit:
		cfg := DefaultConfig()
		if err := applyConfigFile(&cfg, explicitPath); err != nil {
			return cfg, err
		}
		return cfg, nil
	case SearchFile:
		cfg := DefaultConfig()
		path := findUpward(startDir, "fmt.ua")
		if path == "" {
			return cfg, nil
		}
		if err := applyConfigFile(&cfg, path); err != nil {
			return cfg, err
		}
		return cfg, nil
	default:
		return DefaultConfig(), nil
	}
}

func findUpward(dir, name string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil // missing/unreadable config falls back to defaults
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "indent" {
			cfg.Indent = strings.ReplaceAll(val, "\\t", "\t")
		}
		// unknown keys are ignored, not errors
	}
	return nil
}

// Format parses source and re-renders it canonically.
func Format(source, path string, cfg Config) (string, error) {
	sc := lexer.NewScanner(source, path)
	toks := sc.ScanTokens()
	if len(sc.Errors) > 0 {
		return "", sc.Errors[0]
	}
	p := parser.New(toks, path)
	items := p.Parse()
	if len(p.Errors) > 0 {
		return "", p.Errors[0]
	}
	pr := &printer{cfg: cfg}
	pr.items(items, 0)
	return pr.b.String(), nil
}

type printer struct {
	b   strings.Builder
	cfg Config
}

func (p *printer) indent(depth int) {
	for i := 0; i < depth; i++ {
		p.b.WriteString(p.cfg.Indent)
	}
}

func (p *printer) items(items []ast.Item, depth int) {
	for _, it := range items {
		p.item(it, depth)
	}
}

func (p *printer) item(it ast.Item, depth int) {
	switch it.Kind {
	case ast.IExtraNewlines:
		p.b.WriteString("\n")
	case ast.IScoped:
		p.indent(depth)
		if it.Test {
			p.b.WriteString("{test\n")
		} else {
			p.b.WriteString("{\n")
		}
		p.items(it.ScopedItems, depth+1)
		p.indent(depth)
		p.b.WriteString("}\n")
	case ast.IBinding:
		p.indent(depth)
		p.b.WriteString(it.Binding.Name)
		if it.Binding.Signature != nil {
			fmt.Fprintf(&p.b, " |%d %d|", it.Binding.Signature.Inputs, it.Binding.Signature.Outputs)
		}
		p.b.WriteString(" = ")
		p.words(it.Binding.Words)
		p.b.WriteString("\n")
	case ast.IWords:
		p.indent(depth)
		p.words(it.Words)
		p.b.WriteString("\n")
	}
}

func (p *printer) words(words []ast.Word) {
	for i, w := range words {
		if i > 0 {
			p.b.WriteString(" ")
		}
		p.word(w)
	}
}

func (p *printer) word(w ast.Word) {
	switch w.Kind {
	case ast.KNumber:
		p.b.WriteString(w.NumberText)
	case ast.KChar:
		fmt.Fprintf(&p.b, "@%s", escapeRune(w.CharVal))
	case ast.KString:
		fmt.Fprintf(&p.b, "%q", w.StringVal)
	case ast.KFormatString:
		p.b.WriteString("$\"")
		for i, part := range w.Parts {
			p.b.WriteString(escapeString(part))
			if i < len(w.Parts)-1 {
				p.b.WriteString("{}")
			}
		}
		p.b.WriteString("\"")
	case ast.KMultilineString:
		for i, part := range w.Parts {
			if i > 0 {
				p.b.WriteString("\n")
			}
			p.b.WriteString("$ ")
			p.b.WriteString(part)
		}
	case ast.KIdent, ast.KPrimitive, ast.KComment:
		if w.Kind == ast.KComment {
			p.b.WriteString("#")
			p.b.WriteString(strings.TrimPrefix(w.Text, "#"))
			return
		}
		p.b.WriteString(w.Text)
	case ast.KStrand:
		for i, sw := range w.Strand {
			if i > 0 {
				p.b.WriteString("_")
			}
			p.word(sw)
		}
	case ast.KOcean:
		for i, ow := range w.Ocean {
			if i > 0 {
				p.b.WriteString("~")
			}
			p.word(ow)
		}
	case ast.KArray:
		p.b.WriteString("[")
		if w.Array.Constant {
			p.b.WriteString("const ")
		}
		for i, line := range w.Array.Lines {
			if i > 0 {
				p.b.WriteString("\n")
			}
			p.words(line)
		}
		p.b.WriteString("]")
	case ast.KFunc:
		p.b.WriteString("(")
		if w.Func.Signature != nil {
			fmt.Fprintf(&p.b, "|%d %d| ", w.Func.Signature.Inputs, w.Func.Signature.Outputs)
		}
		for i, line := range w.Func.Lines {
			if i > 0 {
				p.b.WriteString("\n")
			}
			p.words(line)
		}
		p.b.WriteString(")")
	case ast.KModified:
		p.b.WriteString(w.Modified.Modifier.Text)
		p.b.WriteString("(")
		p.words(w.Modified.Operands)
		p.b.WriteString(")")
		if w.Modified.Terminated {
			p.b.WriteString("|")
		}
	}
}

func escapeRune(r rune) string {
	switch r {
	case '\n':
		return "\\n"
	case '\t':
		return "\\t"
	default:
		return string(r)
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
