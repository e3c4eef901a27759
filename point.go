package ytrace

import (
	"fmt"
	"sync/atomic"
)

// PointID is the structural identity of a trace point: the tuple which
// identifies one call site and configuration across processes and runs. It is
// the key used by exact-match lookups, batch protocol specs, and config
// restoration. The tuple is not guaranteed globally unique, but within one
// registry the first point matching an ID, in registration order, wins.
type PointID struct {
	File     string
	Line     int
	Function string
	Level    string
	Message  string
}

// String renders the ID in the same shape as a listing line, minus the index
// and state columns.
func (id PointID) String() string {
	return fmt.Sprintf("[%s] %s:%d (%s) %q", id.Level, id.File, id.Line, id.Function, id.Message)
}

// TracePoint is one registered instrumentation site. The enabled flag is
// owned by the point itself, not by the call site, and is read without any
// lock, so the hot-path check costs a single atomic load. All other fields
// are immutable after registration.
type TracePoint struct {
	id       PointID
	index    int
	registry *Registry
	enabled  atomic.Bool
}

// ID returns the structural identity of the point.
func (p *TracePoint) ID() PointID { return p.id }

// Index returns the registration-order index of the point. Indices are
// assigned sequentially from zero and remain stable for the lifetime of the
// process, regardless of later registrations.
func (p *TracePoint) Index() int { return p.index }

// Enabled reports whether the point is currently enabled. It is safe to call
// from any goroutine and takes no locks.
func (p *TracePoint) Enabled() bool { return p.enabled.Load() }

// Emit formats the point's message with the provided args and passes the
// result to the registry's handler, if the point is enabled. When the point
// is disabled, Emit returns after the atomic flag check.
func (p *TracePoint) Emit(args ...any) {
	if !p.enabled.Load() {
		return
	}
	message := p.id.Message
	if len(args) > 0 {
		message = fmt.Sprintf(p.id.Message, args...)
	}
	p.emit(message)
}

// emit passes a fully-formatted message to the registry's handler. Callers
// are responsible for the enabled check.
func (p *TracePoint) emit(message string) {
	p.registry.handler()(p.id.Level, p.id.File, p.id.Line, p.id.Function, message)
}

// listingLine renders the point in the form consumed by control clients.
//
//	0 [ON]  [info] /path/to/file.go:123 (handleRequest) "starting"
func (p *TracePoint) listingLine() string {
	state := "[OFF]"
	if p.enabled.Load() {
		state = "[ON] "
	}
	return fmt.Sprintf("%d %s [%s] %s:%d (%s) %q", p.index, state, p.id.Level, p.id.File, p.id.Line, p.id.Function, p.id.Message)
}
