//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by the package. A nil logger restores
// the default, which writes to slog.Default with component=ffsnap.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default().With("component", "ffsnap")
}
