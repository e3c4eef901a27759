package ytrace

import (
	"runtime"
	"strings"
)

// callerInfo resolves the source location of the caller skip frames up the
// stack, in the shape stored in a PointID: full file path, line number, and
// the bare function name without its package path.
func callerInfo(skip int) (file string, line int, function string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0, "unknown"
	}

	function = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = trimFuncName(fn.Name())
	}
	return file, line, function
}

// trimFuncName reduces a fully qualified function name like
// "github.com/acme/app/server.(*Handler).ServeHTTP" to
// "(*Handler).ServeHTTP".
func trimFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
