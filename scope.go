package ytrace

import (
	"fmt"
	"time"
)

// Span traces entry and exit of a region of code, usually a function. The
// entry and exit points register separately, with levels func-entry and
// func-exit, so each side can be toggled on its own.
//
// Typical usage registers the span once, at package scope, and defers the
// finish func returned by Enter.
//
//	var span = ytrace.NewSpan("handle request")
//
//	func handleRequest() {
//	    defer span.Enter()()
//	    ...
//	}
type Span struct {
	entry *TracePoint
	exit  *TracePoint
}

// NewSpan registers a span against the registry at the caller's source
// location. The name doubles as a format string for Enter's args.
func (r *Registry) NewSpan(name string) *Span {
	file, line, function := callerInfo(2)
	if name == "" {
		name = function
	}
	return &Span{
		entry: r.Register(PointID{File: file, Line: line, Function: function, Level: "func-entry", Message: name}),
		exit:  r.Register(PointID{File: file, Line: line, Function: function, Level: "func-exit", Message: name}),
	}
}

// Enter emits the entry event, if the entry point allows it, and returns a
// finish func which emits the exit event with the elapsed time, if the exit
// point allows it. Both flags are captured here, at guard construction, so a
// concurrent toggle mid-scope can't produce an exit without its entry.
func (sp *Span) Enter(args ...any) func() {
	var (
		begin   = time.Now()
		entryOn = sp.entry.Enabled()
		exitOn  = sp.exit.Enabled()
	)

	name := sp.entry.id.Message
	if len(args) > 0 {
		name = fmt.Sprintf(name, args...)
	}

	if entryOn {
		sp.entry.emit("→ " + name)
	}

	return func() {
		if exitOn {
			sp.exit.emit(fmt.Sprintf("← %s [%s]", name, time.Since(begin)))
		}
	}
}

//
//
//

// Timer is a scope guard that feeds the registry's timer aggregator. Every
// completed Start/finish pair records a sample for the label, whether or not
// any trace output is enabled; the timer-entry and timer-exit points only
// gate the emitted lines.
//
//	var timer = ytrace.NewTimer("db_query")
//
//	func queryDatabase() {
//	    defer timer.Start()()
//	    ...
//	}
type Timer struct {
	entry *TracePoint
	exit  *TracePoint
	label string
	set   *TimerSet
}

// NewTimer registers a timer against the registry at the caller's source
// location. An empty label uses the enclosing function name, matching the
// common case of timing a whole function.
func (r *Registry) NewTimer(label string) *Timer {
	file, line, function := callerInfo(2)
	if label == "" {
		label = function
	}
	return &Timer{
		entry: r.Register(PointID{File: file, Line: line, Function: function, Level: "timer-entry", Message: label}),
		exit:  r.Register(PointID{File: file, Line: line, Function: function, Level: "timer-exit", Message: label}),
		label: label,
		set:   r.timers,
	}
}

// Label returns the timer's aggregation label.
func (t *Timer) Label() string {
	return t.label
}

// Start begins one sample and returns the finish func that records it. Trace
// emission flags are captured at Start, like Span.Enter.
func (t *Timer) Start() func() {
	var (
		begin   = time.Now()
		entryOn = t.entry.Enabled()
		exitOn  = t.exit.Enabled()
	)

	if entryOn {
		t.entry.emit(t.label + " started")
	}

	return func() {
		took := time.Since(begin)
		t.set.Record(t.label, took)
		if exitOn {
			t.exit.emit(fmt.Sprintf("%s took %s", t.label, FormatDuration(float64(took.Nanoseconds()))))
		}
	}
}
