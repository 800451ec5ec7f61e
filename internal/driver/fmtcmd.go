package driver

import (
	"os"
	"path/filepath"

	uerrors "ua/internal/errors"
	"ua/internal/formatter"
)

// FmtOptions configures the `fmt` subcommand.
type FmtOptions struct {
	Optimize bool // -O: accepted, reserved (see RunOptions.Optimize)
	Config   formatter.Config
}

// FmtFile formats a single file in place, returning the canonical text
// it wrote.
func FmtFile(path string, opts FmtOptions) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", path, err)
	}
	out, ferr := formatSource(string(data), path, opts.Config)
	if ferr != nil {
		return "", ferr
	}
	if out != string(data) {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return "", uerrors.New(uerrors.IO, uerrors.Span{}, "writing %s: %v", path, err)
		}
	}
	return out, nil
}

// FmtAll formats every .ua file found by walking dir, in lexical order.
// It returns the list of paths it rewrote (paths already canonical are
// skipped silently, matching a format pass being a no-op on clean
// source) and the first error encountered, if any.
func FmtAll(dir string, opts FmtOptions) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".ua" {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, uerrors.New(uerrors.IO, uerrors.Span{}, "walking %s: %v", dir, err)
	}

	var changed []string
	for _, p := range paths {
		before, rerr := os.ReadFile(p)
		if rerr != nil {
			return changed, uerrors.New(uerrors.Load, uerrors.Span{}, "reading %s: %v", p, rerr)
		}
		out, ferr := FmtFile(p, opts)
		if ferr != nil {
			return changed, ferr
		}
		if out != string(before) {
			changed = append(changed, p)
		}
	}
	return changed, nil
}
