package ioeffect

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"ua/internal/array"
	uerrors "ua/internal/errors"
)

// StdBackend is the default host backend: real stdio, filesystem,
// process environment, wall clock, and a seeded PRNG.
type StdBackend struct {
	Stdout io.Writer
	stdin  *bufio.Reader
	rng    *rand.Rand
	args   []string
}

func NewStdBackend(args []string) *StdBackend {
	return &StdBackend{
		Stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		args:   args,
	}
}

func (b *StdBackend) Show(v array.Value) error {
	_, err := fmt.Fprintln(b.Stdout, formatGrid(v))
	return err
}

func (b *StdBackend) Print(v array.Value) error {
	_, err := fmt.Fprint(b.Stdout, renderPlain(v))
	return err
}

func (b *StdBackend) Println(v array.Value) error {
	_, err := fmt.Fprintln(b.Stdout, renderPlain(v))
	return err
}

// ScanLine reads one line from stdin; EOF yields "" with no error, per
// the spec's scanln contract.
func (b *StdBackend) ScanLine() (string, error) {
	line, err := b.stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", uerrors.NewIOError(uerrors.Span{}, err, "reading stdin")
	}
	return trimNewline(line), nil
}

func (b *StdBackend) Args() []string { return b.args }

func (b *StdBackend) Var(name string) (string, error) {
	return os.Getenv(name), nil
}

func (b *StdBackend) Rand() (float64, error) { return b.rng.Float64(), nil }

func (b *StdBackend) Now() (float64, error) {
	return float64(time.Now().UnixNano()) / 1e6, nil
}

func (b *StdBackend) FReadStr(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", uerrors.NewIOError(uerrors.Span{}, err, "reading "+path)
	}
	return string(data), nil
}

func (b *StdBackend) FReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, uerrors.NewIOError(uerrors.Span{}, err, "reading "+path)
	}
	return data, nil
}

func (b *StdBackend) FLines(path string) ([]string, error) {
	text, err := b.FReadStr(path)
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

func (b *StdBackend) FWriteStr(path, contents string) error {
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return uerrors.NewIOError(uerrors.Span{}, err, "writing "+path)
	}
	return nil
}

func (b *StdBackend) FWriteBytes(path string, contents []byte) error {
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return uerrors.NewIOError(uerrors.Span{}, err, "writing "+path)
	}
	return nil
}

func (b *StdBackend) FExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, uerrors.NewIOError(uerrors.Span{}, err, "stat "+path)
}

func (b *StdBackend) FIsFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, uerrors.NewIOError(uerrors.Span{}, err, "stat "+path)
	}
	return !info.IsDir(), nil
}

func (b *StdBackend) FListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, uerrors.NewIOError(uerrors.Span{}, err, "listing "+path)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (b *StdBackend) ImRead(path string) (array.Value, error) {
	return readImage(path)
}

func (b *StdBackend) ImWrite(path string, v array.Value) error {
	return writeImage(path, v)
}

// ImShow has no display surface of its own; wrap in DevPreviewBackend
// for an interactive one. It still writes a PNG snapshot to the system
// temp directory so headless runs leave something inspectable.
func (b *StdBackend) ImShow(v array.Value) error {
	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("ua-imshow-%d.png", time.Now().UnixNano()))
	if err := writeImage(snapshot, v); err != nil {
		return err
	}
	fmt.Fprintf(b.Stdout, "[image %s written to %s]\n", humanize.Bytes(uint64(estimateImageBytes(v))), snapshot)
	return nil
}

func estimateImageBytes(v array.Value) int64 {
	n := int64(1)
	for _, d := range v.Shape() {
		n *= int64(d)
	}
	return n
}

func trimNewline(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, trimNewline(s[start:i+1]))
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func renderPlain(v array.Value) string {
	return v.String()
}

func formatGrid(v array.Value) string {
	return v.String()
}
