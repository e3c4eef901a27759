package ytrace

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newProtocolRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry().SetConfigPath(filepath.Join(t.TempDir(), "ytrace.config"))
}

func TestProcessCommandDispatch(t *testing.T) {
	t.Parallel()

	r := newProtocolRegistry(t)
	r.Register(PointID{File: "a.go", Line: 10, Function: "f", Level: "info", Message: "hello"})
	r.Register(PointID{File: "b.go", Line: 20, Function: "g", Level: "warn", Message: "watch out"})

	t.Run("enable all", func(t *testing.T) {
		if want, have := "OK: All trace points enabled\n", r.processCommand("enable all"); want != have {
			t.Errorf("want %q, have %q", want, have)
		}
		for _, line := range strings.Split(strings.TrimSuffix(r.processCommand("list"), "\n"), "\n") {
			if !strings.Contains(line, "[ON] ") {
				t.Errorf("after enable all, line %q not ON", line)
			}
		}
	})

	t.Run("disable all short form", func(t *testing.T) {
		if want, have := "OK: All trace points disabled\n", r.processCommand("da"); want != have {
			t.Errorf("want %q, have %q", want, have)
		}
	})

	t.Run("list", func(t *testing.T) {
		want := []string{
			`0 [OFF] [info] a.go:10 (f) "hello"`,
			`1 [OFF] [warn] b.go:20 (g) "watch out"`,
		}
		have := strings.Split(strings.TrimSuffix(r.processCommand("l"), "\n"), "\n")
		if !cmp.Equal(want, have) {
			t.Fatal(cmp.Diff(want, have))
		}
	})

	t.Run("help", func(t *testing.T) {
		for _, cmd := range []string{"help", "h", "?"} {
			if have := r.processCommand(cmd); !strings.Contains(have, "Commands:") {
				t.Errorf("%s: %q", cmd, have)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		want := "ERROR: Unknown command. Type 'help' for usage.\n"
		for _, cmd := range []string{"", "frobnicate", "ENABLE ALL", "list extra"} {
			if have := r.processCommand(cmd); want != have {
				t.Errorf("%q: want %q, have %q", cmd, want, have)
			}
		}
	})

	t.Run("timers empty", func(t *testing.T) {
		if want, have := "(no timers)\n", r.processCommand("timers"); want != have {
			t.Errorf("want %q, have %q", want, have)
		}
	})
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	r := newProtocolRegistry(t)
	p1 := r.Register(PointID{File: "a.go", Line: 10, Function: "f", Level: "info", Message: "hello world"})
	p2 := r.Register(PointID{File: "b.go", Line: 20, Function: "g", Level: "warn", Message: "plain"})

	t.Run("match with encoded message", func(t *testing.T) {
		have := r.processCommand("enable a.go:10:f:info:hello%20world")
		if want := "OK: Enabled 1 trace point(s)\n"; want != have {
			t.Errorf("want %q, have %q", want, have)
		}
		if !p1.Enabled() {
			t.Error("p1 not enabled")
		}
	})

	t.Run("no match reports zero, still OK", func(t *testing.T) {
		have := r.processCommand("enable a.cc:10:f:info:hello%20world")
		if want := "OK: Enabled 0 trace point(s)\n"; want != have {
			t.Errorf("want %q, have %q", want, have)
		}
	})

	t.Run("bad line number aborts only that spec", func(t *testing.T) {
		have := r.processCommand("enable a.go:xx:f:info:hello%20world b.go:20:g:warn:plain")
		if want := "OK: Enabled 1 trace point(s)\n"; want != have {
			t.Errorf("want %q, have %q", want, have)
		}
		if !p2.Enabled() {
			t.Error("p2 not enabled")
		}
	})

	t.Run("disable short form", func(t *testing.T) {
		have := r.processCommand("d a.go:10:f:info:hello%20world b.go:20:g:warn:plain")
		if want := "OK: Disabled 2 trace point(s)\n"; want != have {
			t.Errorf("want %q, have %q", want, have)
		}
		if p1.Enabled() || p2.Enabled() {
			t.Error("points still enabled after batch disable")
		}
	})
}

func TestSpecRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []PointID{
		{File: "a.go", Line: 10, Function: "f", Level: "info", Message: "hello world"},
		{File: "/abs/path/b.go", Line: 0, Function: "(*T).Method", Level: "timer-exit", Message: "took: 5ms, 3 rows"},
		{File: "c.go", Line: 99999, Function: "über", Level: "trace", Message: "naïve output: 100%"},
		{File: "d.go", Line: 1, Function: "f", Level: "info", Message: ""},
		{File: "e.go", Line: 2, Function: "f", Level: "info", Message: "100%"},
	} {
		spec, err := EncodeSpec(id)
		if err != nil {
			t.Fatalf("%v: encode: %v", id, err)
		}
		if strings.ContainsAny(spec, " \t\n") {
			t.Fatalf("%v: spec %q contains whitespace", id, spec)
		}
		have, err := DecodeSpec(spec)
		if err != nil {
			t.Fatalf("%v: decode %q: %v", id, spec, err)
		}
		if !cmp.Equal(id, have) {
			t.Fatal(cmp.Diff(id, have))
		}
	}
}

func TestEncodeSpecRejectsColonInFile(t *testing.T) {
	t.Parallel()

	_, err := EncodeSpec(PointID{File: "C:/app/a.go", Line: 1, Function: "f", Level: "info", Message: "m"})
	if err == nil {
		t.Fatal("expected error for colon in file path")
	}
}

func TestDecodeSpecErrors(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{
		"",
		"nocolons",
		"a.go:10:f",           // missing fields
		"a.go:ten:f:info:m",   // non-numeric line
		"a.go:10:f:info:m%2",  // truncated escape
		"a.go:10:f:info:m%zz", // non-hex escape
		"::::",                // empty line field
	} {
		if _, err := DecodeSpec(spec); err == nil {
			t.Errorf("%q: expected error", spec)
		}
	}
}

func TestPercentEncodeAlphabet(t *testing.T) {
	t.Parallel()

	in := "AZaz09-_.~ :%/ß"
	enc := PercentEncode(in)
	if want := "AZaz09-_.~%20%3A%25%2F%C3%9F"; want != enc {
		t.Fatalf("want %q, have %q", want, enc)
	}
	dec, err := PercentDecode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if in != dec {
		t.Fatalf("round trip: want %q, have %q", in, dec)
	}
}
