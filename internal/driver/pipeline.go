package driver

import (
	"os"
	"path/filepath"

	"ua/internal/bytecode"
	"ua/internal/compiler"
	uerrors "ua/internal/errors"
	"ua/internal/formatter"
	"ua/internal/ioeffect"
	"ua/internal/lexer"
	"ua/internal/parser"
	"ua/internal/vm"
)

// compile lexes, parses, and compiles source text rooted at path (used
// only for span reporting and relative import resolution). The first
// compile error, if any, is returned as the sole error — matching the
// host's one-error-at-a-time reporting style.
func compile(source, path string) (*bytecode.Assembly, error) {
	sc := lexer.NewScanner(source, path)
	toks := sc.ScanTokens()
	if len(sc.Errors) > 0 {
		return nil, sc.Errors[0]
	}
	if len(toks) == 0 {
		return bytecode.NewAssembly(), nil
	}
	p := parser.New(toks, path)
	items := p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors[0]
	}
	asm, errs := compiler.Compile(items)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return asm, nil
}

// loadAndCompile reads path from disk and compiles it, wrapping a read
// failure as a Load error carrying the path.
func loadAndCompile(path string) (*bytecode.Assembly, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", path, err)
	}
	asm, err := compile(string(data), path)
	return asm, string(data), err
}

// newRunner builds a VM over asm and backend with import resolution
// wired: an `import "x"` from a file at basePath resolves x relative to
// basePath's directory, compiles and runs it against the same backend
// and the same Importer cache, and shares args with the parent run.
func newRunner(asm *bytecode.Assembly, backend ioeffect.Backend, basePath string, args []string) *vm.VM {
	v := vm.New(asm, backend)
	v.Path = basePath
	v.Args = args
	v.RunImport = importRunner(v, basePath)
	return v
}

func importRunner(parent *vm.VM, basePath string) func(string) (ioeffect.ImportResult, error) {
	return func(path string) (ioeffect.ImportResult, error) {
		resolved := path
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(basePath), path)
		}
		asm, _, err := loadAndCompile(resolved)
		if err != nil {
			return ioeffect.ImportResult{}, err
		}
		sub := vm.New(asm, parent.Backend)
		sub.Importer = parent.Importer
		sub.Args = parent.Args
		sub.Path = resolved
		sub.RunImport = importRunner(sub, resolved)
		if err := sub.Run(); err != nil {
			return ioeffect.ImportResult{}, err
		}
		stack := sub.Stack()
		res := ioeffect.ImportResult{Stack: make([]interface{}, len(stack))}
		for i, item := range stack {
			res.Stack[i] = item
		}
		return res, nil
	}
}

// formatSource re-emits source canonically per cfg. On a format failure
// it returns the formatter's error (and an empty string); callers decide
// whether that's fatal (run --no-format skip) or retryable (watch).
func formatSource(source, path string, cfg formatter.Config) (string, error) {
	return formatter.Format(source, path, cfg)
}
