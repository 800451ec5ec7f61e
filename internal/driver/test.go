package driver

import (
	"fmt"
	"io"
	"os"

	"ua/internal/array"
	uerrors "ua/internal/errors"
	"ua/internal/formatter"
	"ua/internal/ioeffect"
)

// TestOptions configures the `test` subcommand.
type TestOptions struct {
	NoFormat     bool
	FormatConfig formatter.Config
	Args         []string
	Stdout       io.Writer
	Backend      ioeffect.Backend
}

// TestResult summarizes a test run: how many scoped test blocks ran and
// how many of those failed (errored, or left a zero number or a
// zero-length array on the stack).
type TestResult struct {
	Ran      int
	Failures int
}

// Test formats (unless suppressed) and executes path, running every
// scoped test block and reporting "No failures!" on full success per
// the external-interfaces contract. A scoped test block "fails" when it
// errors, or when its residue holds a zero number or a zero-length
// array; a block that leaves nothing on the stack passes.
func Test(path string, opts TestOptions) (TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TestResult{}, uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", path, err)
	}
	source := string(data)
	if !opts.NoFormat {
		if formatted, ferr := formatSource(source, path, opts.FormatConfig); ferr == nil {
			source = formatted
		}
	}

	asm, cerr := compile(source, path)
	if cerr != nil {
		return TestResult{}, cerr
	}

	backend := opts.Backend
	if backend == nil {
		backend = ioeffect.NewStdBackend(opts.Args)
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	v := newRunner(asm, backend, path, opts.Args)
	blockResults, runErr := v.RunReportingTests()
	if runErr != nil {
		return TestResult{}, runErr
	}

	result := TestResult{Ran: len(blockResults)}
	for _, b := range blockResults {
		if b.Err != nil {
			result.Failures++
			fmt.Fprintf(out, "FAIL %s:%d: %v\n", path, b.Start, b.Err)
			continue
		}
		if !blockSucceeded(b.Residue) {
			result.Failures++
			fmt.Fprintf(out, "FAIL %s:%d: left %d value(s) on the stack, expected a truthy residue\n",
				path, b.Start, len(b.Residue))
		}
	}

	if result.Failures == 0 {
		fmt.Fprintln(out, "No failures!")
	} else {
		fmt.Fprintf(out, "%d of %d test block(s) failed\n", result.Failures, result.Ran)
	}
	return result, nil
}

// blockSucceeded applies the pass rule: no residue is a pass (nothing
// asserted, nothing failed), and every residue value must be non-empty
// and, where numeric, free of zeros.
func blockSucceeded(stack []array.Value) bool {
	for _, v := range stack {
		if v.Len() == 0 {
			return false
		}
		if nums, err := v.Nums(); err == nil {
			for _, n := range nums {
				if n == 0 {
					return false
				}
			}
			continue
		}
	}
	return true
}
