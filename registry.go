package ytrace

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Registry owns an append-only table of trace points and the live enabled
// flag of each one. All structural operations — registration, lookup, bulk
// mutation, listing — are serialized by a single mutex; the per-point flags
// are additionally readable without that mutex, which is what keeps the
// hot-path check cheap.
//
// A registry has an explicit lifecycle: construct with NewRegistry, and call
// Close once when the process is done with it. Most applications use the
// package-level default registry instead, which additionally starts the
// control server lazily, on the first registration.
type Registry struct {
	handlerPtr atomic.Pointer[Handler]

	mtx    sync.Mutex
	points []*TracePoint

	defaultEnabled bool
	configPath     string
	saved          []ConfigEntry
	onSaveError    func(error)

	autoStart  bool
	serverOnce sync.Once
	server     *Server

	timers *TimerSet

	info  *log.Logger
	debug *log.Logger
}

// NewRegistry returns a registry with the default handler, the process
// default config path, and no control server. Saved config entries, if any,
// are loaded immediately; they are matched against points as the points
// register. New points default to disabled.
func NewRegistry() *Registry {
	r := &Registry{
		timers: NewTimerSet(),
		info:   log.New(os.Stderr, "[ytrace] ", 0),
		debug:  log.New(io.Discard, "[ytrace] ", 0),
	}
	r.SetHandler(DefaultHandler)
	r.SetConfigPath(DefaultConfigPath())
	return r
}

// SetDefaultEnabled sets the initial state of subsequently registered points
// which have no saved config entry. The default is disabled.
func (r *Registry) SetDefaultEnabled(on bool) *Registry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.defaultEnabled = on
	return r
}

// SetConfigPath sets the file used to persist point state, replacing any
// previously loaded entries with the contents of the given file. An empty
// path disables persistence. Load errors are swallowed: a missing or
// unreadable file simply yields no saved entries.
func (r *Registry) SetConfigPath(path string) *Registry {
	var saved []ConfigEntry
	if path != "" {
		saved, _ = LoadConfig(path)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.configPath = path
	r.saved = saved
	return r
}

// OnSaveError installs a callback invoked whenever a persistence write
// fails. Persistence stays best-effort either way: the in-memory state is
// already correct when the callback fires, and mutating operations never
// propagate write errors to their callers.
func (r *Registry) OnSaveError(f func(error)) *Registry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.onSaveError = f
	return r
}

// SetAutoStart controls whether the first registration starts the control
// server. The default registry has this on; explicitly constructed
// registries default to off and start a server via StartServer, or mount an
// HTTP surface, as the application prefers.
func (r *Registry) SetAutoStart(on bool) *Registry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.autoStart = on
	return r
}

// SetInfoLogger redirects operational log lines, like the control socket
// path printed at server start, or bind failures. The default writes to
// stderr with a "[ytrace] " prefix.
func (r *Registry) SetInfoLogger(logger *log.Logger) *Registry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.info = logger
	return r
}

// SetDebugLogger redirects per-connection debug log lines from the control
// server. The default discards them.
func (r *Registry) SetDebugLogger(logger *log.Logger) *Registry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.debug = logger
	return r
}

// Timers returns the registry's timer aggregator.
func (r *Registry) Timers() *TimerSet {
	return r.timers
}

//
//
//

// Register appends a new point with the given identity and returns its
// handle. The point starts in the registry's default state unless a saved
// config entry matches its identity, in which case the saved state wins.
// Each call site is expected to register exactly once and retain the handle.
func (r *Registry) Register(id PointID) *TracePoint {
	r.mtx.Lock()

	p := &TracePoint{
		id:       id,
		index:    len(r.points),
		registry: r,
	}

	enabled := r.defaultEnabled
	for _, e := range r.saved {
		if e.PointID == id {
			enabled = e.Enabled
			break
		}
	}
	p.enabled.Store(enabled)

	r.points = append(r.points, p)
	autoStart := r.autoStart

	r.mtx.Unlock()

	if autoStart {
		r.serverOnce.Do(func() { r.startServer() })
	}

	return p
}

// Point registers a trace point at the caller's source location, with the
// given level and message. The message doubles as a format string for
// TracePoint.Emit.
func (r *Registry) Point(level, message string) *TracePoint {
	file, line, function := callerInfo(2)
	return r.Register(PointID{File: file, Line: line, Function: function, Level: level, Message: message})
}

// SetEnabled sets the state of the first point, in registration order, whose
// identity exactly matches id. It reports whether any point matched. The
// change, if any, is persisted before SetEnabled returns.
func (r *Registry) SetEnabled(id PointID, state bool) bool {
	r.mtx.Lock()
	var matched, changed bool
	for _, p := range r.points {
		if p.id == id {
			matched = true
			changed = p.enabled.Swap(state) != state
			break
		}
	}
	entries := r.snapshotLocked(changed)
	r.mtx.Unlock()

	r.save(entries)
	return matched
}

// SetEnabledByIndex sets the state of the point at the given registration
// index. It reports whether the index was in bounds.
func (r *Registry) SetEnabledByIndex(index int, state bool) bool {
	r.mtx.Lock()
	var matched, changed bool
	if 0 <= index && index < len(r.points) {
		matched = true
		changed = r.points[index].enabled.Swap(state) != state
	}
	entries := r.snapshotLocked(changed)
	r.mtx.Unlock()

	r.save(entries)
	return matched
}

// SetLevelEnabled sets the state of every point whose level exactly matches,
// returning the number of points matched. A single persistence write occurs
// if any point actually changed state.
func (r *Registry) SetLevelEnabled(level string, state bool) int {
	return r.setMatching(func(p *TracePoint) bool { return p.id.Level == level }, state)
}

// SetFileEnabled sets the state of every point whose file exactly matches,
// returning the number of points matched.
func (r *Registry) SetFileEnabled(file string, state bool) int {
	return r.setMatching(func(p *TracePoint) bool { return p.id.File == file }, state)
}

// SetFunctionEnabled sets the state of every point whose function exactly
// matches, returning the number of points matched.
func (r *Registry) SetFunctionEnabled(function string, state bool) int {
	return r.setMatching(func(p *TracePoint) bool { return p.id.Function == function }, state)
}

// SetAllEnabled sets the state of every point, returning the number of
// points. A call that changes nothing writes nothing to disk.
func (r *Registry) SetAllEnabled(state bool) int {
	return r.setMatching(func(*TracePoint) bool { return true }, state)
}

func (r *Registry) setMatching(match func(*TracePoint) bool, state bool) int {
	r.mtx.Lock()
	var matched int
	var changed bool
	for _, p := range r.points {
		if match(p) {
			matched++
			if p.enabled.Swap(state) != state {
				changed = true
			}
		}
	}
	entries := r.snapshotLocked(changed)
	r.mtx.Unlock()

	r.save(entries)
	return matched
}

// List renders every registered point, one line per point, in registration
// order. The format is consumed by control clients and is part of the wire
// protocol.
func (r *Registry) List() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	var sb strings.Builder
	for _, p := range r.points {
		sb.WriteString(p.listingLine())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ForEach calls the visitor for every registered point, in registration
// order, while holding the registry lock. Visitors must not call back into
// mutating registry operations.
func (r *Registry) ForEach(visit func(*TracePoint)) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, p := range r.points {
		visit(p)
	}
}

// Len returns the number of registered points.
func (r *Registry) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return len(r.points)
}

//
//
//

// snapshotLocked derives the persisted form of the current table. It returns
// nil when no state changed or persistence is disabled, which callers treat
// as "nothing to write". Must be called with the registry lock held.
func (r *Registry) snapshotLocked(changed bool) []ConfigEntry {
	if !changed || r.configPath == "" {
		return nil
	}
	entries := make([]ConfigEntry, len(r.points))
	for i, p := range r.points {
		entries[i] = ConfigEntry{PointID: p.id, Enabled: p.enabled.Load()}
	}
	return entries
}

// save writes the snapshot synchronously, outside the registry lock. Write
// failures don't affect the in-memory state and are reported only through
// the optional OnSaveError callback.
func (r *Registry) save(entries []ConfigEntry) {
	if entries == nil {
		return
	}
	if err := SaveConfig(r.configPath, entries); err != nil {
		r.debug.Printf("save config: %v", err)
		if f := r.onSaveError; f != nil {
			f(err)
		}
	}
}

//
//
//

// StartServer binds and starts the control server for this registry,
// returning the bind error, if any. Most callers rely on the default
// registry's lazy start instead.
func (r *Registry) StartServer() error {
	var err error
	r.serverOnce.Do(func() { err = r.startServer() })
	return err
}

func (r *Registry) startServer() error {
	s := NewServer(r)
	if err := s.Start(); err != nil {
		// The registry keeps working locally, just without remote control.
		r.info.Printf("control server unavailable: %v", err)
		return err
	}
	r.mtx.Lock()
	r.server = s
	r.mtx.Unlock()
	return nil
}

// ServerPath returns the control socket path, or the empty string when no
// control server is running.
func (r *Registry) ServerPath() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.server == nil {
		return ""
	}
	return r.server.Path()
}

// Close stops the control server, if one is running, and removes its socket
// file. It is safe to call once, after which the registry must not be used
// for further registrations.
func (r *Registry) Close() {
	r.mtx.Lock()
	s := r.server
	r.server = nil
	r.mtx.Unlock()

	if s != nil {
		s.Stop()
	}
}

// DumpTimers writes the timer summary to w, typically on normal process
// exit.
func (r *Registry) DumpTimers(w io.Writer) {
	io.WriteString(w, r.timers.Summary())
}
