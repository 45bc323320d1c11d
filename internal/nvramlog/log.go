// Package nvramlog provides the tiny leveled debug logger used by the
// nvram CLI (the nvramsh shell does not use it), gated by the
// NVRAM_DEBUG environment variable in the original driver.
//
// There is no logging library in this ledger's teacher repo to follow —
// it reports errors as returned values and prints user-facing messages
// directly with fmt. nvramlog keeps that texture: a Logger is an
// explicit value threaded through call sites rather than a package-level
// global, so tests can assert on captured output without mutating
// process state, but its actual output calls are plain fmt.Fprintf
// against an io.Writer, same as the rest of the codebase.
package nvramlog

import (
	"fmt"
	"io"
)

// Logger writes debug-level diagnostics to an output writer when
// enabled, and is a silent no-op otherwise.
type Logger struct {
	out     io.Writer
	enabled bool
}

// New returns a Logger that writes to out only if enabled is true.
func New(out io.Writer, enabled bool) Logger {
	return Logger{out: out, enabled: enabled}
}

// Enabled reports whether debug logging is active.
func (l Logger) Enabled() bool {
	return l.enabled
}

// Debugf writes a formatted debug line if the logger is enabled.
func (l Logger) Debugf(format string, args ...any) {
	if !l.enabled {
		return
	}

	fmt.Fprintf(l.out, "nvram: debug: "+format+"\n", args...)
}
