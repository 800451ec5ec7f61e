package ioeffect

import (
	"sync"

	"golang.org/x/sync/singleflight"

	uerrors "ua/internal/errors"
)

// ImportResult is the cached outcome of running one imported file's
// top-level: its final operand stack, replayed onto the importer's
// stack on every subsequent `import` of the same path.
type ImportResult struct {
	Stack []interface{} // array.Value, kept as interface{} to avoid an import cycle with internal/vm
}

// Importer resolves and caches `import` by literal path string, as the
// spec requires: the same path resolves identically within one backend
// lifetime. Concurrent imports of the same not-yet-cached path are
// collapsed onto a single run via singleflight; a path already on the
// current call stack is a cycle.
type Importer struct {
	mu      sync.Mutex
	cache   map[string]ImportResult
	group   singleflight.Group
	running map[string]bool
}

func NewImporter() *Importer {
	return &Importer{cache: make(map[string]ImportResult), running: make(map[string]bool)}
}

// CyclicImportError is raised when a path imports (transitively) itself.
type CyclicImportError struct {
	Path string
}

func (e *CyclicImportError) Error() string {
	return "cyclic import: " + e.Path
}

// Resolve returns the cached result for path, running run(path) at most
// once even under concurrent callers. run is supplied by the VM, which
// knows how to compile and execute a file.
func (im *Importer) Resolve(path string, run func(string) (ImportResult, error)) (ImportResult, error) {
	im.mu.Lock()
	if cached, ok := im.cache[path]; ok {
		im.mu.Unlock()
		return cached, nil
	}
	if im.running[path] {
		im.mu.Unlock()
		return ImportResult{}, uerrors.NewImportError(path, &CyclicImportError{Path: path})
	}
	im.running[path] = true
	im.mu.Unlock()

	v, err, _ := im.group.Do(path, func() (interface{}, error) {
		res, err := run(path)
		if err != nil {
			return ImportResult{}, uerrors.NewImportError(path, err)
		}
		im.mu.Lock()
		im.cache[path] = res
		im.mu.Unlock()
		return res, nil
	})

	im.mu.Lock()
	delete(im.running, path)
	im.mu.Unlock()

	if err != nil {
		return ImportResult{}, err
	}
	return v.(ImportResult), nil
}
