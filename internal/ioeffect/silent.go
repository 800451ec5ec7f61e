package ioeffect

import (
	"fmt"
	"strings"
	"sync"

	"ua/internal/array"
	uerrors "ua/internal/errors"
)

// SilentBackend is an in-memory backend for tests: output is captured
// rather than written to a real terminal, stdin is a pre-seeded queue
// of lines, the filesystem is a map, and Rand/Now are deterministic.
type SilentBackend struct {
	mu sync.Mutex

	Output    strings.Builder
	Lines     []string // fed to ScanLine in order; exhausted -> ""
	lineIdx   int
	Files     map[string][]byte
	Vars      map[string]string
	ArgsList  []string
	FixedRand float64
	FixedNow  float64
	Shown     []array.Value
}

func NewSilentBackend() *SilentBackend {
	return &SilentBackend{
		Files: make(map[string][]byte),
		Vars:  make(map[string]string),
	}
}

func (b *SilentBackend) Show(v array.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Output.WriteString(formatGrid(v))
	b.Output.WriteByte('\n')
	return nil
}

func (b *SilentBackend) Print(v array.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Output.WriteString(renderPlain(v))
	return nil
}

func (b *SilentBackend) Println(v array.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Output.WriteString(renderPlain(v))
	b.Output.WriteByte('\n')
	return nil
}

func (b *SilentBackend) ScanLine() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lineIdx >= len(b.Lines) {
		return "", nil
	}
	line := b.Lines[b.lineIdx]
	b.lineIdx++
	return line, nil
}

func (b *SilentBackend) Args() []string { return b.ArgsList }

func (b *SilentBackend) Var(name string) (string, error) {
	return b.Vars[name], nil
}

func (b *SilentBackend) Rand() (float64, error) { return b.FixedRand, nil }
func (b *SilentBackend) Now() (float64, error)  { return b.FixedNow, nil }

func (b *SilentBackend) FReadStr(path string) (string, error) {
	data, ok := b.Files[path]
	if !ok {
		return "", uerrors.NewIOError(uerrors.Span{}, fmt.Errorf("no such file %q", path), "reading "+path)
	}
	return string(data), nil
}

func (b *SilentBackend) FReadBytes(path string) ([]byte, error) {
	data, ok := b.Files[path]
	if !ok {
		return nil, uerrors.NewIOError(uerrors.Span{}, fmt.Errorf("no such file %q", path), "reading "+path)
	}
	return data, nil
}

func (b *SilentBackend) FLines(path string) ([]string, error) {
	text, err := b.FReadStr(path)
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

func (b *SilentBackend) FWriteStr(path, contents string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Files[path] = []byte(contents)
	return nil
}

func (b *SilentBackend) FWriteBytes(path string, contents []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Files[path] = contents
	return nil
}

func (b *SilentBackend) FExists(path string) (bool, error) {
	_, ok := b.Files[path]
	return ok, nil
}

func (b *SilentBackend) FIsFile(path string) (bool, error) {
	_, ok := b.Files[path]
	return ok, nil
}

func (b *SilentBackend) FListDir(path string) ([]string, error) {
	prefix := strings.TrimSuffix(path, "/") + "/"
	var out []string
	for p := range b.Files {
		if strings.HasPrefix(p, prefix) {
			rest := strings.TrimPrefix(p, prefix)
			if !strings.Contains(rest, "/") {
				out = append(out, rest)
			}
		}
	}
	return out, nil
}

func (b *SilentBackend) ImRead(path string) (array.Value, error) {
	data, ok := b.Files[path]
	if !ok {
		return array.Value{}, uerrors.NewIOError(uerrors.Span{}, fmt.Errorf("no such file %q", path), "reading "+path)
	}
	return decodeInMemoryImage(data)
}

func (b *SilentBackend) ImWrite(path string, v array.Value) error {
	data, err := encodePNG(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Files[path] = data
	return nil
}

func (b *SilentBackend) ImShow(v array.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Shown = append(b.Shown, v)
	return nil
}
