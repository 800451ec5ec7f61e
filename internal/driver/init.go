package driver

import (
	"os"
	"path/filepath"

	uerrors "ua/internal/errors"
)

const initGreeting = "\"hello\"\n"

// Init creates main.ua with a greeting literal in dir, refusing if a
// working file already resolves there.
func Init(dir string) (string, error) {
	if _, err := ResolveWorkingFile(dir); err == nil {
		return "", uerrors.New(uerrors.Load, uerrors.Span{}, "a working file already exists in %s", dir)
	}
	path := filepath.Join(dir, "main.ua")
	if err := os.WriteFile(path, []byte(initGreeting), 0o644); err != nil {
		return "", uerrors.New(uerrors.IO, uerrors.Span{}, "writing %s: %v", path, err)
	}
	return path, nil
}
