package ytrace_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ytrace-dev/ytrace"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	want := []ytrace.ConfigEntry{
		{PointID: ytrace.PointID{File: "a.go", Line: 1, Function: "fa", Level: "trace", Message: "plain"}, Enabled: true},
		{PointID: ytrace.PointID{File: "/abs/b.go", Line: 200, Function: "(*T).m", Level: "info", Message: "with spaces inside"}, Enabled: false},
		{PointID: ytrace.PointID{File: "c.go", Line: 3, Function: "fc", Level: "warn", Message: ""}, Enabled: true},
	}

	path := filepath.Join(t.TempDir(), "ytrace.config")
	if err := ytrace.SaveConfig(path, want); err != nil {
		t.Fatal(err)
	}

	have, err := ytrace.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	entries, err := ytrace.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.config"))
	if err != nil {
		t.Fatalf("missing file must not be an error, have %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("missing file must yield no entries, have %d", len(entries))
	}
}

func TestLoadConfigSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"1 app.cc 42 doWork info starting",
		"2 app.cc 42 doWork info bad-enabled-flag",
		"1 app.cc forty doWork info bad-line",
		"1 app.cc 42",
		"",
		"0 app.cc 43 doWork info stopping now",
	}, "\n") + "\n"

	path := filepath.Join(t.TempDir(), "ytrace.config")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	have, err := ytrace.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []ytrace.ConfigEntry{
		{PointID: ytrace.PointID{File: "app.cc", Line: 42, Function: "doWork", Level: "info", Message: "starting"}, Enabled: true},
		{PointID: ytrace.PointID{File: "app.cc", Line: 43, Function: "doWork", Level: "info", Message: "stopping now"}, Enabled: false},
	}
	if !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}
}

func TestRegistryStateSurvivesReload(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "ytrace.config")

	ids := []ytrace.PointID{
		{File: "a.go", Line: 1, Function: "fa", Level: "trace", Message: "ma"},
		{File: "b.go", Line: 2, Function: "fb", Level: "info", Message: "mb"},
		{File: "c.go", Line: 3, Function: "fc", Level: "warn", Message: "mc"},
	}

	first := ytrace.NewRegistry().SetConfigPath(configPath)
	for _, id := range ids {
		first.Register(id)
	}
	first.SetEnabled(ids[1], true)

	// A fresh registry with the same config path stands in for the next
	// process launch. Only two of the three points re-register; the third
	// is simply not restored, which is not an error.
	second := ytrace.NewRegistry().SetConfigPath(configPath)
	pb := second.Register(ids[1])
	pc := second.Register(ids[2])

	if want, have := true, pb.Enabled(); want != have {
		t.Errorf("restored point b: want %v, have %v", want, have)
	}
	if want, have := false, pc.Enabled(); want != have {
		t.Errorf("restored point c: want %v, have %v", want, have)
	}
}

func TestPathHash(t *testing.T) {
	t.Parallel()

	h1 := ytrace.PathHash("/usr/local/bin/app")
	h2 := ytrace.PathHash("/usr/local/bin/app")
	h3 := ytrace.PathHash("/opt/other/bin/app")

	if h1 != h2 {
		t.Errorf("hash not deterministic: %q vs %q", h1, h2)
	}
	if h1 == h3 {
		t.Errorf("same basename, different locations, same hash %q", h1)
	}

	for _, h := range []string{h1, h3} {
		if want, have := 13, len(h); want != have {
			t.Errorf("hash %q: want length %d, have %d", h, want, have)
		}
		for _, c := range h {
			isBase36 := ('0' <= c && c <= '9') || ('a' <= c && c <= 'z')
			if !isBase36 {
				t.Errorf("hash %q: character %q outside lowercase base-36", h, c)
			}
		}
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Parallel()

	sock := ytrace.DefaultSocketPath()
	if base := filepath.Base(sock); !strings.HasPrefix(base, "ytrace.") || !strings.HasSuffix(base, ".sock") {
		t.Errorf("socket path %q: want ytrace.<name>.<pid>[.<hash>].sock", sock)
	}

	cfg := ytrace.DefaultConfigPath()
	if cfg == "" {
		t.Skip("no user cache dir in this environment")
	}
	if !strings.HasSuffix(cfg, ".config") {
		t.Errorf("config path %q: want .config suffix", cfg)
	}
	if want := filepath.Join(filepath.Base(filepath.Dir(cfg))); want != "ytrace" {
		t.Errorf("config path %q: want ytrace dir, have %q", cfg, want)
	}
}
