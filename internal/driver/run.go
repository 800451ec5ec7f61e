package driver

import (
	"fmt"
	"io"
	"os"
	"time"

	uerrors "ua/internal/errors"
	"ua/internal/formatter"
	"ua/internal/ioeffect"
	"ua/internal/vm"
)

// RunOptions configures a single `run` (or `eval`) invocation. Zero value
// formats the file with the zero FormatConfig (no config file is loaded
// here; the CLI loads one), does no instruction timing, runs in Normal
// mode and writes to stdout. Run itself never prints the update message.
type RunOptions struct {
	NoFormat      bool
	NoUpdate      bool
	TimeInstrs    bool
	Mode          vm.RunMode
	FormatConfig  formatter.Config
	Optimize      bool // -O: reserved for a future optimizing pass; accepted and ignored today
	Args          []string
	Stdout        io.Writer
	Backend       ioeffect.Backend // nil selects a fresh StdBackend
}

// Run formats (unless suppressed) then executes path, printing the
// final stack to opts.Stdout (or os.Stdout). It implements the `run`
// subcommand's contract from the external-interfaces section: format,
// execute, print each final stack value.
func Run(path string, opts RunOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", path, err)
	}
	source := string(data)
	if !opts.NoFormat {
		formatted, ferr := formatSource(source, path, opts.FormatConfig)
		if ferr == nil {
			source = formatted
		}
		// A FormatError here is tolerated exactly as the watcher tolerates
		// it on a race with a still-being-written file: fall through and
		// compile the unformatted source rather than aborting the run.
	}

	asm, cerr := compile(source, path)
	if cerr != nil {
		return cerr
	}

	backend := opts.Backend
	if backend == nil {
		backend = ioeffect.NewStdBackend(opts.Args)
	}
	v := newRunner(asm, backend, path, opts.Args)
	v.TimeInstrs = opts.TimeInstrs

	if err := v.RunWithMode(opts.Mode); err != nil {
		return err
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	for _, val := range v.Stack() {
		fmt.Fprintln(out, val.String())
	}
	if opts.TimeInstrs {
		reportTimings(out, v.Timings)
	}
	return nil
}

// Eval executes a literal source string under a synthetic path (so
// imports and diagnostics still have a stable, if virtual, location),
// printing the final stack the same way Run does.
func Eval(code string, opts RunOptions) error {
	const virtualPath = "<eval>"
	asm, cerr := compile(code, virtualPath)
	if cerr != nil {
		return cerr
	}
	backend := opts.Backend
	if backend == nil {
		backend = ioeffect.NewStdBackend(opts.Args)
	}
	v := newRunner(asm, backend, virtualPath, opts.Args)
	v.TimeInstrs = opts.TimeInstrs
	if err := v.RunWithMode(opts.Mode); err != nil {
		return err
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	for _, val := range v.Stack() {
		fmt.Fprintln(out, val.String())
	}
	return nil
}

func reportTimings(out io.Writer, timings map[string]time.Duration) {
	if len(timings) == 0 {
		return
	}
	fmt.Fprintln(out, "--- instruction timings ---")
	for name, d := range timings {
		fmt.Fprintf(out, "%s: %s\n", name, d)
	}
}
