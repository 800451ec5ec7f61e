package driver

import (
	"fmt"
	"io"
)

// Version is this module's own build version, the equivalent of the
// source dialect's CARGO_PKG_VERSION env var (spec.md §6). There is no
// real package registry to check against here — the update-check
// collaborator lives outside the core (spec.md §1's Non-goals) — so
// ShowUpdateMessage exists only so `run`/`watch --no-update` has
// something concrete to suppress.
const Version = "0.1.0"

// ShowUpdateMessage prints "ua <Version>" to out unless noUpdate is set.
// It does no network or version check of its own.
func ShowUpdateMessage(out io.Writer, noUpdate bool) {
	if noUpdate {
		return
	}
	fmt.Fprintf(out, "ua %s\n", Version)
}
