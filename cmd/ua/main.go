// cmd/ua/main.go is the CLI entry point: it parses os.Args into one of
// the seven subcommands (init, run, eval, test, watch, fmt, repl) and
// dispatches to internal/driver, which owns every filesystem and
// process-level concern. Argument parsing is hand-rolled os.Args
// scanning rather than a flag library, matching the teacher's own
// command-line layer.
package main

import (
	"fmt"
	"os"

	"ua/internal/driver"
	"ua/internal/formatter"
	"ua/internal/ioeffect"
	"ua/internal/vm"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "init":
		err = cmdInit(rest)
	case "run":
		err = cmdRun(rest)
	case "eval":
		err = cmdEval(rest)
	case "test":
		err = cmdTest(rest)
	case "watch":
		err = cmdWatch(rest)
	case "fmt":
		err = cmdFmt(rest)
	case "repl":
		err = cmdRepl(rest)
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return
	case "-v", "--version", "version":
		fmt.Println(driver.Version)
		return
	default:
		fmt.Fprintf(os.Stderr, "ua: unknown command %q\n", cmd)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage(w *os.File) {
	fmt.Fprint(w, `ua — array language interpreter

Usage:
  ua init
  ua run [path] [--no-format] [--no-update] [--time-instrs] [--mode MODE] [--format-config SRC] [-O] [--preview] [--preview-addr ADDR] [-- ARGS...]
  ua eval CODE [-- ARGS...]
  ua test [path] [--format-config SRC]
  ua watch [--no-format] [--no-update] [--clear] [--stdin-file PATH] [--preview] [--preview-addr ADDR] [-- ARGS...]
  ua fmt [path] [-O]
  ua repl
`)
}

// splitTrailing splits args on the first bare "--", returning everything
// before it and everything after (the args vector forwarded to the
// running program).
func splitTrailing(args []string) (before, trailing []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func parseFormatConfigFlag(value string) (formatter.SourceKind, string) {
	switch value {
	case "", "search":
		return formatter.SearchFile, ""
	case "default":
		return formatter.Default, ""
	default:
		return formatter.Explicit, value
	}
}

func cmdInit(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, err := driver.Init(dir)
	if err != nil {
		return err
	}
	fmt.Printf("initialized %s\n", path)
	return nil
}

func cmdRun(args []string) error {
	before, trailing := splitTrailing(args)

	opts := driver.RunOptions{Mode: vm.ModeNormal}
	formatKind := formatter.SearchFile
	formatPath := ""
	preview := false
	previewAddr := ""
	var path string

	for i := 0; i < len(before); i++ {
		switch a := before[i]; a {
		case "--no-format":
			opts.NoFormat = true
		case "--no-update":
			opts.NoUpdate = true
		case "--time-instrs":
			opts.TimeInstrs = true
		case "-O":
			opts.Optimize = true
		case "--mode":
			i++
			opts.Mode = parseMode(before[i])
		case "--format-config":
			i++
			formatKind, formatPath = parseFormatConfigFlag(before[i])
		case "--preview":
			preview = true
		case "--preview-addr":
			i++
			previewAddr = before[i]
		default:
			if path == "" {
				path = a
			}
		}
	}

	cfg, err := formatter.LoadConfig(formatKind, ".", formatPath)
	if err != nil {
		return err
	}
	opts.FormatConfig = cfg
	opts.Args = trailing

	driver.ShowUpdateMessage(os.Stdout, opts.NoUpdate)

	if preview {
		dp := ioeffect.NewDevPreviewBackend(ioeffect.NewStdBackend(trailing), previewAddr)
		if err := dp.Start(); err != nil {
			return err
		}
		fmt.Printf("preview at http://%s/\n", dp.Addr())
		opts.Backend = dp
	}

	if path == "" {
		resolved, err := driver.ResolveWorkingFile(".")
		if err != nil {
			return err
		}
		path = resolved
	}
	return driver.Run(path, opts)
}

func cmdEval(args []string) error {
	before, trailing := splitTrailing(args)
	if len(before) == 0 {
		return fmt.Errorf("ua eval: missing CODE argument")
	}
	code := before[0]
	opts := driver.RunOptions{Mode: vm.ModeNormal, Args: trailing}
	return driver.Eval(code, opts)
}

func cmdTest(args []string) error {
	opts := driver.TestOptions{}
	formatKind := formatter.SearchFile
	formatPath := ""
	var path string

	for i := 0; i < len(args); i++ {
		switch a := args[i]; a {
		case "--format-config":
			i++
			formatKind, formatPath = parseFormatConfigFlag(args[i])
		default:
			if path == "" {
				path = a
			}
		}
	}

	cfg, err := formatter.LoadConfig(formatKind, ".", formatPath)
	if err != nil {
		return err
	}
	opts.FormatConfig = cfg

	if path == "" {
		resolved, err := driver.ResolveWorkingFile(".")
		if err != nil {
			return err
		}
		path = resolved
	}
	result, err := driver.Test(path, opts)
	if err != nil {
		return err
	}
	if result.Failures > 0 {
		os.Exit(1)
	}
	return nil
}

func cmdWatch(args []string) error {
	before, trailing := splitTrailing(args)
	opts := driver.WatchOptions{Args: trailing}

	for i := 0; i < len(before); i++ {
		switch a := before[i]; a {
		case "--no-format":
			opts.NoFormat = true
		case "--no-update":
			opts.NoUpdate = true
		case "--clear":
			opts.Clear = true
		case "--stdin-file":
			i++
			opts.StdinFile = before[i]
		case "--preview":
			opts.Preview = true
		case "--preview-addr":
			i++
			opts.PreviewAddr = before[i]
		}
	}

	cfg, err := formatter.LoadConfig(formatter.SearchFile, ".", "")
	if err != nil {
		return err
	}
	opts.FormatConfig = cfg
	return driver.Watch(".", opts)
}

func cmdFmt(args []string) error {
	opts := driver.FmtOptions{Config: formatter.DefaultConfig()}
	var path string
	for _, a := range args {
		if a == "-O" {
			opts.Optimize = true
			continue
		}
		if path == "" {
			path = a
		}
	}
	if path != "" {
		out, err := driver.FmtFile(path, opts)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	changed, err := driver.FmtAll(".", opts)
	if err != nil {
		return err
	}
	for _, p := range changed {
		fmt.Println(p)
	}
	return nil
}

func cmdRepl(args []string) error {
	return driver.Repl(driver.ReplOptions{})
}

func parseMode(s string) vm.RunMode {
	switch s {
	case "test":
		return vm.ModeTest
	case "all":
		return vm.ModeAll
	default:
		return vm.ModeNormal
	}
}
