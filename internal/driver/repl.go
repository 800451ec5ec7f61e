package driver

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"ua/internal/formatter"
	"ua/internal/ioeffect"
)

// ReplOptions configures the `repl` subcommand.
type ReplOptions struct {
	In           io.Reader
	Out          io.Writer
	Args         []string
	FormatConfig formatter.Config
	Backend      ioeffect.Backend
}

// Repl runs an interactive read-eval-print loop: prompt "» ", read a
// line, echo it reformatted with a "↪" marker, execute it against a
// persistent VM, print each result prefixed with "∴". EOF (^D) or a
// read error ends the loop cleanly. Prompt and echo decoration are
// skipped when stdout isn't a terminal, so piped/redirected REPL runs
// don't emit glyphs into a script or test harness.
func Repl(opts ReplOptions) error {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	backend := opts.Backend
	if backend == nil {
		backend = ioeffect.NewStdBackend(opts.Args)
	}

	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	scanner := bufio.NewScanner(in)
	const virtualPath = "<repl>"

	// One VM persists across the session: a stack-based REPL's natural
	// contract is that each line continues to operate on the operand
	// stack and global bindings the previous line left behind, so only
	// the compiled Assembly is swapped in per line.
	v := newRunner(nil, backend, virtualPath, opts.Args)

	for {
		if interactive {
			fmt.Fprint(out, "» ")
		}
		if !scanner.Scan() {
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		if formatted, err := formatSource(line, virtualPath, opts.FormatConfig); err == nil && interactive {
			fmt.Fprintf(out, "↪ %s\n", formatted)
		}

		asm, cerr := compile(line, virtualPath)
		if cerr != nil {
			fmt.Fprintln(out, cerr)
			continue
		}
		v.Assembly = asm
		v.RunImport = importRunner(v, virtualPath)
		prevLen := len(v.Stack())
		if err := v.Run(); err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		stack := v.Stack()
		for _, val := range stack[prevLen:] {
			fmt.Fprintf(out, "∴ %s\n", val.String())
		}
	}
}
