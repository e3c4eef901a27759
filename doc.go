// Package ytrace provides named, individually toggleable trace points which
// can be inspected and flipped at runtime, from outside the process, while
// the process keeps running.
//
// Call sites register a trace point once, retain the returned handle, and
// check its enabled flag on every invocation at near-zero cost. A background
// control server, started lazily on first registration against the default
// registry, exposes the full table of points over a local unix socket with a
// small line-oriented text protocol. Toggled state is persisted to a small
// per-executable config file, so the next launch of the same binary restores
// the last-known enable/disable decisions.
//
// Basic usage is via a package-scoped point handle.
//
//	var pt = ytrace.Point("debug", "loading config from %s")
//
//	func loadConfig(path string) {
//	    pt.Emit(path)
//	    ...
//	}
//
// Spans trace function entry and exit, and timers additionally feed a
// per-label statistics aggregator queryable over the control channel.
//
//	var span = ytrace.NewSpan("handle request")
//	var timer = ytrace.NewTimer("db_query")
//
//	func handleRequest() {
//	    defer span.Enter()()
//	    ...
//	}
//
//	func queryDatabase() {
//	    defer timer.Start()()
//	    ...
//	}
//
// The ytrace-ctl command in cmd/ytrace-ctl discovers running processes and
// flips their trace points from the terminal.
package ytrace
