package ytrace

import (
	"fmt"
	"os"
)

// Handler receives the output of an enabled trace point: the point's level
// and source location, and the fully-formatted message. Handlers must be
// safe for concurrent use, as enabled points can emit from any goroutine.
type Handler func(level, file string, line int, function, message string)

// DefaultHandler writes trace lines to stderr.
//
//	[TRACE] [debug] /path/to/file.go:123 (loadConfig): loading config from /etc/app.conf
func DefaultHandler(level, file string, line int, function, message string) {
	fmt.Fprintf(os.Stderr, "[TRACE] [%s] %s:%d (%s): %s\n", level, file, line, function, message)
}

// SetHandler installs the handler invoked by every enabled point registered
// against the registry. A nil handler restores DefaultHandler. SetHandler
// may be called at any time, including while other goroutines emit.
func (r *Registry) SetHandler(h Handler) *Registry {
	if h == nil {
		h = DefaultHandler
	}
	r.handlerPtr.Store(&h)
	return r
}

func (r *Registry) handler() Handler {
	return *r.handlerPtr.Load()
}
