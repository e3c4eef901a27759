package ytracectl

import (
	"os"
	"testing"
)

func TestParseSocketPID(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		pid  int
		ok   bool
	}{
		{"ytrace.myapp.1234.sock", 1234, true},
		{"ytrace.myapp.1234.0abc9xyz01234.sock", 1234, true},
		{"ytrace.my.dotted.app.99.sock", 99, true},
		{"ytrace.app.sock", 0, false},
		{"ytrace.app.-5.sock", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pid, ok := parseSocketPID(tc.name)
			if want, have := tc.ok, ok; want != have {
				t.Fatalf("ok: want %v, have %v", want, have)
			}
			if want, have := tc.pid, pid; want != have {
				t.Errorf("pid: want %d, have %d", want, have)
			}
		})
	}
}

func TestAliveSelf(t *testing.T) {
	t.Parallel()

	if !Alive(os.Getpid()) {
		t.Error("own process reported dead")
	}
	if Alive(0) || Alive(-1) {
		t.Error("nonpositive PID reported alive")
	}
}
