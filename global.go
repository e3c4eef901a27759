package ytrace

// The default registry preserves the original drop-in ergonomics: call sites
// register against it with package-level functions, and the control server
// starts lazily on the first registration. Applications that want explicit
// lifecycles construct their own Registry instead.

var defaultRegistry = NewRegistry().SetAutoStart(true)

// Default returns the package-level default registry.
func Default() *Registry {
	return defaultRegistry
}

// Point registers a trace point at the caller's source location against the
// default registry.
func Point(level, message string) *TracePoint {
	file, line, function := callerInfo(2)
	return defaultRegistry.Register(PointID{File: file, Line: line, Function: function, Level: level, Message: message})
}

// NewSpan registers a func-entry/func-exit span at the caller's source
// location against the default registry.
func NewSpan(name string) *Span {
	file, line, function := callerInfo(2)
	if name == "" {
		name = function
	}
	return &Span{
		entry: defaultRegistry.Register(PointID{File: file, Line: line, Function: function, Level: "func-entry", Message: name}),
		exit:  defaultRegistry.Register(PointID{File: file, Line: line, Function: function, Level: "func-exit", Message: name}),
	}
}

// NewTimer registers a timer at the caller's source location against the
// default registry.
func NewTimer(label string) *Timer {
	file, line, function := callerInfo(2)
	if label == "" {
		label = function
	}
	return &Timer{
		entry: defaultRegistry.Register(PointID{File: file, Line: line, Function: function, Level: "timer-entry", Message: label}),
		exit:  defaultRegistry.Register(PointID{File: file, Line: line, Function: function, Level: "timer-exit", Message: label}),
		label: label,
		set:   defaultRegistry.timers,
	}
}

// SetHandler installs the handler on the default registry.
func SetHandler(h Handler) {
	defaultRegistry.SetHandler(h)
}

// SetDefaultEnabled sets the initial state of subsequently registered points
// on the default registry.
func SetDefaultEnabled(on bool) {
	defaultRegistry.SetDefaultEnabled(on)
}

// EnableAll enables every point in the default registry.
func EnableAll() {
	defaultRegistry.SetAllEnabled(true)
}

// DisableAll disables every point in the default registry.
func DisableAll() {
	defaultRegistry.SetAllEnabled(false)
}

// EnableLevel enables every default-registry point with the given level.
func EnableLevel(level string) {
	defaultRegistry.SetLevelEnabled(level, true)
}

// DisableLevel disables every default-registry point with the given level.
func DisableLevel(level string) {
	defaultRegistry.SetLevelEnabled(level, false)
}

// EnableFile enables every default-registry point in the given file.
func EnableFile(file string) {
	defaultRegistry.SetFileEnabled(file, true)
}

// DisableFile disables every default-registry point in the given file.
func DisableFile(file string) {
	defaultRegistry.SetFileEnabled(file, false)
}

// EnableFunction enables every default-registry point in the given function.
func EnableFunction(function string) {
	defaultRegistry.SetFunctionEnabled(function, true)
}

// DisableFunction disables every default-registry point in the given
// function.
func DisableFunction(function string) {
	defaultRegistry.SetFunctionEnabled(function, false)
}

// Shutdown stops the default registry's control server, if it was started.
// Call once, deterministically, at process exit.
func Shutdown() {
	defaultRegistry.Close()
}
