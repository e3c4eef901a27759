// Package ytracectl implements the client side of the ytrace control
// channel: discovering control sockets in the filesystem, checking the
// liveness of their owning processes, sending protocol commands, and
// parsing and filtering listings. The ytrace-ctl command is a thin shell
// around this package.
package ytracectl

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// A Socket is one discovered control socket and the PID parsed out of its
// name. PID is zero when the name doesn't carry a parseable PID segment.
type Socket struct {
	Path string
	PID  int
}

// SocketDir returns the directory scanned for control sockets, which is the
// same temp dir the server side binds in.
func SocketDir() string {
	return os.TempDir()
}

// FindSockets scans the socket dir for ytrace control sockets, live or
// stale, in lexical order.
func FindSockets() ([]Socket, error) {
	entries, err := os.ReadDir(SocketDir())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", SocketDir(), err)
	}

	var sockets []Socket
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "ytrace.") || !strings.HasSuffix(name, ".sock") {
			continue
		}
		pid, _ := parseSocketPID(name)
		sockets = append(sockets, Socket{
			Path: filepath.Join(SocketDir(), name),
			PID:  pid,
		})
	}
	return sockets, nil
}

// parseSocketPID extracts the PID segment from a socket file name of the
// form ytrace.<basename>.<pid>[.<path-hash>].sock. The basename may itself
// contain dots, so the name is parsed from the right: the last dot-segment
// before ".sock" is either the path hash or the PID.
func parseSocketPID(name string) (int, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "ytrace."), ".sock")
	parts := strings.Split(trimmed, ".")
	for i := len(parts) - 1; i >= len(parts)-2 && i >= 0; i-- {
		if pid, err := strconv.Atoi(parts[i]); err == nil && pid > 0 {
			return pid, true
		}
	}
	return 0, false
}

// SocketForPID returns the discovered socket owned by the given PID.
func SocketForPID(pid int) (Socket, bool) {
	sockets, err := FindSockets()
	if err != nil {
		return Socket{}, false
	}
	for _, s := range sockets {
		if s.PID == pid {
			return s, true
		}
	}
	return Socket{}, false
}

// Alive reports whether a process with the given PID exists. It uses signal
// zero, which probes without delivering anything; a permission error still
// means the process exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

// Cmdline returns the command line of the given PID, best-effort. Arguments
// are joined with single spaces; an unreadable or missing process yields "".
func Cmdline(pid int) string {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return ""
	}
	args := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
	return strings.Join(args, " ")
}

// A Process is one live traced process: its PID, control socket, and
// command line.
type Process struct {
	PID     int
	Socket  string
	Cmdline string
}

// FindProcesses returns the live processes behind discovered sockets,
// filtering out stale sockets whose owners have exited.
func FindProcesses() ([]Process, error) {
	sockets, err := FindSockets()
	if err != nil {
		return nil, err
	}

	var procs []Process
	for _, s := range sockets {
		if s.PID <= 0 || !Alive(s.PID) {
			continue
		}
		procs = append(procs, Process{
			PID:     s.PID,
			Socket:  s.Path,
			Cmdline: Cmdline(s.PID),
		})
	}
	return procs, nil
}
