// Package monitoring holds the process-wide diagnostic logger used by the
// collector, the stores and the dashboard server.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be replaced with SetLogger; tests use it to capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that prepends prefix to every line it sends to
// Logf. Logf is looked up on each call so a later SetLogger still applies.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// Capture redirects Logf into a slice until the returned restore func runs.
func Capture() (lines *[]string, restore func()) {
	original := Logf
	var captured []string
	Logf = func(format string, v ...interface{}) {
		captured = append(captured, fmt.Sprintf(format, v...))
	}
	return &captured, func() { Logf = original }
}
