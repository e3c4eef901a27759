package ytrace_test

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ytrace-dev/ytrace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startTestServer(t *testing.T) (*ytrace.Registry, *ytrace.Server) {
	t.Helper()

	dir := t.TempDir()
	r := ytrace.NewRegistry().SetConfigPath(filepath.Join(dir, "ytrace.config"))
	s := ytrace.NewServer(r).SetPath(filepath.Join(dir, "ytrace.sock"))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)
	return r, s
}

func send(t *testing.T, path, command string) string {
	t.Helper()

	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		t.Fatal(err)
	}

	response, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	return string(response)
}

func TestServerEndToEnd(t *testing.T) {
	t.Parallel()

	r, s := startTestServer(t)
	r.Register(ytrace.PointID{File: "a.go", Line: 10, Function: "f", Level: "info", Message: "hello"})
	r.Register(ytrace.PointID{File: "b.go", Line: 20, Function: "g", Level: "warn", Message: "spaced out"})

	if want, have := "OK: All trace points enabled\n", send(t, s.Path(), "enable all"); want != have {
		t.Errorf("enable all: want %q, have %q", want, have)
	}

	listing := send(t, s.Path(), "list")
	for _, line := range strings.Split(strings.TrimSuffix(listing, "\n"), "\n") {
		if !strings.Contains(line, "[ON] ") {
			t.Errorf("listing line not ON: %q", line)
		}
	}

	spec, err := ytrace.EncodeSpec(ytrace.PointID{File: "b.go", Line: 20, Function: "g", Level: "warn", Message: "spaced out"})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := "OK: Disabled 1 trace point(s)\n", send(t, s.Path(), "disable "+spec); want != have {
		t.Errorf("batch disable: want %q, have %q", want, have)
	}

	if want, have := "ERROR: Unknown command. Type 'help' for usage.\n", send(t, s.Path(), "bogus"); want != have {
		t.Errorf("unknown: want %q, have %q", want, have)
	}
}

func TestServerTimersCommand(t *testing.T) {
	t.Parallel()

	r, s := startTestServer(t)
	r.Timers().Record("X", 200*time.Nanosecond)

	response := send(t, s.Path(), "timers")
	if !strings.Contains(response, "X: count=1") {
		t.Errorf("timers response: %q", response)
	}
}

func TestServerCommandWithoutNewline(t *testing.T) {
	t.Parallel()

	// A peer that closes the write side without sending the newline still
	// gets its command processed.
	_, s := startTestServer(t)

	conn, err := net.DialTimeout("unix", s.Path(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.WriteString(conn, "help"); err != nil {
		t.Fatal(err)
	}
	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		t.Fatal(err)
	}

	response, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(response), "Commands:") {
		t.Errorf("response: %q", response)
	}
}

func TestServerRemovesStaleSocket(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ytrace.sock")

	// A stale file from a crashed previous run must not prevent binding.
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	r := ytrace.NewRegistry().SetConfigPath(filepath.Join(dir, "ytrace.config"))
	s := ytrace.NewServer(r).SetPath(path)
	if err := s.Start(); err != nil {
		t.Fatalf("bind with stale socket file: %v", err)
	}

	if want, have := "(no timers)\n", send(t, path, "t"); want != have {
		t.Errorf("want %q, have %q", want, have)
	}

	s.Stop()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file not removed on stop (stat err: %v)", err)
	}
}

func TestServerBindFailureIsTerminal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := ytrace.NewRegistry().SetConfigPath(filepath.Join(dir, "ytrace.config"))

	// Binding inside a missing directory fails; the registry keeps working.
	s := ytrace.NewServer(r).SetPath(filepath.Join(dir, "missing", "ytrace.sock"))
	if err := s.Start(); err == nil {
		t.Fatal("expected bind error")
	}

	p := r.Point("info", "still works")
	r.SetEnabledByIndex(p.Index(), true)
	if !p.Enabled() {
		t.Error("local tracing broken after bind failure")
	}
}

func TestRegistryCloseStopsServer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := ytrace.NewRegistry().SetConfigPath(filepath.Join(dir, "ytrace.config"))
	s := ytrace.NewServer(r).SetPath(filepath.Join(dir, "ytrace.sock"))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	// Stop must unblock the accept wait within its poll interval; goleak
	// verifies the goroutine is gone at process exit.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
