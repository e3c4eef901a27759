package ytrace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ConfigEntry is the persisted last-known state of one trace point: its
// structural identity plus the enabled flag. Entries are loaded once at
// registry construction and matched against points as they register; they
// are never mutated after load, only re-derived from the live table on save.
type ConfigEntry struct {
	PointID
	Enabled bool
}

// PathHash returns a deterministic, fixed-width, lowercase base-36 encoding
// of the given path string. Re-launching the same binary from the same
// location maps to the same hash; the same binary name in a different
// location maps to a different one.
func PathHash(path string) string {
	const width = 13 // max base-36 digits of a uint64
	s := strconv.FormatUint(xxhash.Sum64String(path), 36)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// executablePath returns the absolute path of the running executable, or ""
// when it cannot be determined.
func executablePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if abs, err := filepath.Abs(exe); err == nil {
		exe = abs
	}
	return exe
}

// DefaultSocketPath returns the control socket path for this process:
//
//	<tmp-dir>/ytrace.<executable-basename>.<pid>[.<path-hash>].sock
//
// The path-hash segment is omitted when the executable path cannot be
// determined. The PID segment makes the path process-exclusive; the hash
// segment lets external tooling distinguish installs of the same binary
// name.
func DefaultSocketPath() string {
	var (
		exe  = executablePath()
		base = "unknown"
		hash = ""
	)
	if exe != "" {
		base = filepath.Base(exe)
		hash = "." + PathHash(exe)
	}
	name := fmt.Sprintf("ytrace.%s.%d%s.sock", base, os.Getpid(), hash)
	return filepath.Join(os.TempDir(), name)
}

// DefaultConfigPath returns the per-executable, per-install-location config
// file path:
//
//	<user-cache-dir>/ytrace/<basename>-<path-hash>.config
//
// A leading "ytrace_" prefix on the basename is trimmed, so the example
// binaries share the naming scheme of real applications. Returns "" when
// either the executable path or the user cache dir cannot be determined,
// which disables persistence.
func DefaultConfigPath() string {
	exe := executablePath()
	if exe == "" {
		return ""
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	base := strings.TrimPrefix(filepath.Base(exe), "ytrace_")
	name := fmt.Sprintf("%s-%s.config", base, PathHash(exe))
	return filepath.Join(cache, "ytrace", name)
}

// LoadConfig reads saved entries from the given file. Each line holds one
// entry in fixed field order:
//
//	<0|1> <file> <line> <function> <level> <message...>
//
// The message is the remainder of the line and may itself contain spaces.
// Malformed lines are skipped. A missing file yields no entries and no
// error, since persistence is best-effort by design.
func LoadConfig(path string) ([]ConfigEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var entries []ConfigEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if e, ok := parseConfigLine(scanner.Text()); ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read config: %w", err)
	}
	return entries, nil
}

func parseConfigLine(line string) (ConfigEntry, bool) {
	parts := strings.SplitN(line, " ", 6)
	if len(parts) < 5 {
		return ConfigEntry{}, false
	}

	var enabled bool
	switch parts[0] {
	case "0":
		enabled = false
	case "1":
		enabled = true
	default:
		return ConfigEntry{}, false
	}

	lineNum, err := strconv.Atoi(parts[2])
	if err != nil {
		return ConfigEntry{}, false
	}

	var message string
	if len(parts) == 6 {
		message = parts[5]
	}

	return ConfigEntry{
		PointID: PointID{
			File:     parts[1],
			Line:     lineNum,
			Function: parts[3],
			Level:    parts[4],
			Message:  message,
		},
		Enabled: enabled,
	}, true
}

// SaveConfig overwrites the given file with one line per entry, in the same
// fixed field order read by LoadConfig. The write is synchronous: when
// SaveConfig returns nil, the state is durable.
func SaveConfig(path string, entries []ConfigEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var sb strings.Builder
	for _, e := range entries {
		state := "0"
		if e.Enabled {
			state = "1"
		}
		fmt.Fprintf(&sb, "%s %s %d %s %s %s\n", state, e.File, e.Line, e.Function, e.Level, e.Message)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
