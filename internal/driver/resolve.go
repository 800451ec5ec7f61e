// Package driver is the host-facing orchestration layer: working-file
// resolution, the run/eval/test/watch/fmt/repl entry points the CLI
// dispatches to, and the process-wide watcher state. It is the only
// layer that touches the filesystem directly on the program's behalf
// (reading/writing .ua files, spawning the watch child) — internal/vm
// and internal/compiler never do.
package driver

import (
	"os"
	"path/filepath"
	"sort"

	uerrors "ua/internal/errors"
)

// NoFileError is raised when working-file resolution finds zero
// candidates.
type NoFileError struct{ Dir string }

func (e *NoFileError) Error() string { return "no .ua file found in " + e.Dir + " or its src/ subdirectory" }

// MultipleFilesError is raised when more than one candidate is found and
// none of the preferred names (src/main.ua, main.ua) exist.
type MultipleFilesError struct{ Candidates []string }

func (e *MultipleFilesError) Error() string {
	msg := "multiple .ua files found, none named src/main.ua or main.ua: "
	for i, c := range e.Candidates {
		if i > 0 {
			msg += ", "
		}
		msg += c
	}
	return msg
}

// ResolveWorkingFile implements the precedence rule: prefer src/main.ua,
// then main.ua; otherwise collect every .ua file directly under dir and
// dir/src, erroring on 0 or >1 candidates.
func ResolveWorkingFile(dir string) (string, error) {
	preferred := []string{filepath.Join(dir, "src", "main.ua"), filepath.Join(dir, "main.ua")}
	for _, p := range preferred {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	var candidates []string
	for _, sub := range []string{dir, filepath.Join(dir, "src")} {
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".ua" {
				candidates = append(candidates, filepath.Join(sub, e.Name()))
			}
		}
	}
	sort.Strings(candidates)
	switch len(candidates) {
	case 0:
		return "", uerrors.New(uerrors.Load, uerrors.Span{}, "%s", (&NoFileError{Dir: dir}).Error())
	case 1:
		return candidates[0], nil
	default:
		return "", uerrors.New(uerrors.Load, uerrors.Span{}, "%s", (&MultipleFilesError{Candidates: candidates}).Error())
	}
}
