// Package ioeffect is the pluggable host-services boundary: console,
// filesystem, environment, time, randomness, image, and import effects
// that the VM dispatches through CallIoOp instead of calling directly.
package ioeffect

import "ua/internal/array"

// Backend is the full capability set the VM can call through CallIoOp.
// A wrapping backend embeds another Backend and overrides only the
// methods it changes (see DevPreviewBackend).
type Backend interface {
	Show(v array.Value) error
	Print(v array.Value) error
	Println(v array.Value) error
	ScanLine() (string, error)
	Args() []string
	Var(name string) (string, error)
	Rand() (float64, error)
	Now() (float64, error)

	FReadStr(path string) (string, error)
	FReadBytes(path string) ([]byte, error)
	FLines(path string) ([]string, error)
	FWriteStr(path, contents string) error
	FWriteBytes(path string, contents []byte) error
	FExists(path string) (bool, error)
	FIsFile(path string) (bool, error)
	FListDir(path string) ([]string, error)

	ImRead(path string) (array.Value, error)
	ImWrite(path string, v array.Value) error
	ImShow(v array.Value) error
}
