package driver

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"

	uerrors "ua/internal/errors"
	"ua/internal/formatter"
)

// WatchOptions configures the `watch` subcommand.
type WatchOptions struct {
	NoFormat     bool
	NoUpdate     bool
	Clear        bool
	StdinFile    string
	Args         []string
	FormatConfig formatter.Config
	Out          io.Writer
	Preview      bool
	PreviewAddr  string

	// SelfPath is the executable the watcher re-spawns as the run child
	// (os.Args[0] in the real CLI; overridable for tests).
	SelfPath string
}

// watcher is process-wide state for the single live run-child slot, so
// the SIGINT handler and the watch loop never race setting or killing
// it. Matches the spec's WATCH_CHILD note: this belongs to the
// watcher collaborator, not the VM/core.
type watcher struct {
	mu    sync.Mutex
	child *exec.Cmd
}

func (w *watcher) set(cmd *exec.Cmd) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.child = cmd
}

// killCurrent kills whatever child is currently recorded, if any, and
// clears the slot. Safe to call concurrently with set.
func (w *watcher) killCurrent() {
	w.mu.Lock()
	cmd := w.child
	w.child = nil
	w.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// Watch recursively watches dir for .ua changes and re-runs the
// resolved working file on each change, killing any still-running
// child first. SIGINT kills the live child; a second SIGINT exits the
// watcher itself.
func Watch(dir string, opts WatchOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	self := opts.SelfPath
	if self == "" {
		self = os.Args[0]
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return uerrors.New(uerrors.IO, uerrors.Span{}, "starting watcher: %v", err)
	}
	defer fsw.Close()
	if err := addRecursive(fsw, dir); err != nil {
		return err
	}

	w := &watcher{}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		first := true
		for range sig {
			if first {
				w.killCurrent()
				first = false
				continue
			}
			os.Exit(1)
		}
	}()

	ShowUpdateMessage(out, opts.NoUpdate)

	respawn := func() {
		w.killCurrent()
		path, err := ResolveWorkingFile(dir)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		if !opts.NoFormat {
			if err := formatWithRetry(path, opts.FormatConfig); err != nil {
				fmt.Fprintln(out, err)
			}
		}
		if opts.Clear {
			clearScreen(out)
		}
		cmd := spawnRunChild(self, path, opts)
		w.set(cmd)
		if err := cmd.Start(); err != nil {
			fmt.Fprintln(out, err)
			return
		}
		go func() {
			cmd.Wait()
			w.mu.Lock()
			if w.child == cmd {
				w.child = nil
			}
			w.mu.Unlock()
		}()
	}

	go func() {
		for err := range fsw.Errors {
			fmt.Fprintln(out, err)
		}
	}()

	respawn()
	for ev := range fsw.Events {
		if filepath.Ext(ev.Name) != ".ua" {
			continue
		}
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			continue
		}
		respawn()
	}
	return nil
}

// formatWithRetry tolerates a transient FormatError (the formatter
// racing a still-being-written file) up to ten attempts spaced
// 10*(i+1) ms apart, per the formatter's idempotence-law note in
// spec.md §4.4.
func formatWithRetry(path string, cfg formatter.Config) error {
	const maxAttempts = 10
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		data, err := os.ReadFile(path)
		if err != nil {
			return uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", path, err)
		}
		out, ferr := formatSource(string(data), path, cfg)
		if ferr == nil {
			if out != string(data) {
				return os.WriteFile(path, []byte(out), 0o644)
			}
			return nil
		}
		lastErr = ferr
		time.Sleep(time.Duration(10*(i+1)) * time.Millisecond)
	}
	return lastErr
}

// spawnRunChild builds the subprocess the watcher spawns, per the
// watcher-to-run protocol: `self run <path> --no-format --no-update
// --mode all [-- user-args]`, inheriting stdin unless a stdin file was
// supplied, in which case that file is redirected instead.
func spawnRunChild(self, path string, opts WatchOptions) *exec.Cmd {
	args := []string{"run", path, "--no-format", "--no-update", "--mode", "all"}
	if opts.Preview {
		args = append(args, "--preview")
		if opts.PreviewAddr != "" {
			args = append(args, "--preview-addr", opts.PreviewAddr)
		}
	}
	if len(opts.Args) > 0 {
		args = append(args, "--")
		args = append(args, opts.Args...)
	}
	cmd := exec.Command(self, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if opts.StdinFile != "" {
		f, err := os.Open(opts.StdinFile)
		if err == nil {
			cmd.Stdin = f
		}
	} else {
		cmd.Stdin = os.Stdin
	}
	return cmd
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := fsw.Add(p); err != nil {
				return uerrors.New(uerrors.IO, uerrors.Span{}, "watching %s: %v", p, err)
			}
		}
		return nil
	})
}

func clearScreen(out io.Writer) {
	if f, ok := out.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return
	}
	fmt.Fprint(out, "\x1b[2J\x1b[H")
}
