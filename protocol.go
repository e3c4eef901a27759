package ytrace

import (
	"fmt"
	"strconv"
	"strings"
)

// The control protocol is line-oriented text: one command terminated by a
// newline, one response, connection closed. Commands are case-sensitive,
// whitespace-separated tokens. Batch specs encode a point's structural
// identity as file:line:function:level:message, with the function, level,
// and message fields percent-encoded so they can carry arbitrary bytes,
// colons and spaces included.

const helpText = `Commands:
  list (l)           - List all trace points
  enable all (ea)    - Enable all trace points
  disable all (da)   - Disable all trace points
  enable <specs>     - Enable trace points (file:line:func:level:msg ...)
  disable <specs>    - Disable trace points (file:line:func:level:msg ...)
  timers (t)         - Show timer statistics
  help (h, ?)        - Show this help
`

// processCommand decodes one command line and applies it, returning the full
// response text. Unknown commands yield a generic error response; they never
// fail the connection.
func (r *Registry) processCommand(command string) string {
	switch {
	case command == "list" || command == "l":
		return r.List()

	case command == "enable all" || command == "ea":
		r.SetAllEnabled(true)
		return "OK: All trace points enabled\n"

	case command == "disable all" || command == "da":
		r.SetAllEnabled(false)
		return "OK: All trace points disabled\n"

	case strings.HasPrefix(command, "enable ") || strings.HasPrefix(command, "e "):
		return r.processBatch(command, true)

	case strings.HasPrefix(command, "disable ") || strings.HasPrefix(command, "d "):
		return r.processBatch(command, false)

	case command == "timers" || command == "t":
		return r.timers.Summary()

	case command == "help" || command == "h" || command == "?":
		return helpText

	default:
		return "ERROR: Unknown command. Type 'help' for usage.\n"
	}
}

// processBatch applies a batch enable/disable command. Specs that fail to
// parse, or that match no registered point, are skipped without aborting the
// rest of the batch. The reported count is the number of specs that matched
// and were applied, which callers must expect to be lower than the number
// submitted.
func (r *Registry) processBatch(command string, state bool) string {
	var count int
	for _, spec := range strings.Fields(command)[1:] {
		id, err := DecodeSpec(spec)
		if err != nil {
			continue
		}
		if r.SetEnabled(id, state) {
			count++
		}
	}

	verb := "Disabled"
	if state {
		verb = "Enabled"
	}
	return fmt.Sprintf("OK: %s %d trace point(s)\n", verb, count)
}

//
//
//

// EncodeSpec renders the identity as a batch spec:
//
//	file:line:function:level:message
//
// with the function, level, and message fields percent-encoded. The file
// field is carried raw so the spec stays parseable from the right; a file
// path containing a colon cannot be represented and returns an error.
func EncodeSpec(id PointID) (string, error) {
	if strings.ContainsRune(id.File, ':') {
		return "", fmt.Errorf("file path %q contains a colon, not representable as a spec", id.File)
	}
	return fmt.Sprintf("%s:%d:%s:%s:%s",
		id.File, id.Line,
		PercentEncode(id.Function), PercentEncode(id.Level), PercentEncode(id.Message),
	), nil
}

// DecodeSpec parses a batch spec produced by EncodeSpec, splitting on colons
// from the right: message, then level, then function, then the remainder
// splits at its last colon into file and line.
func DecodeSpec(spec string) (PointID, error) {
	rest, rawMessage, ok := splitLastColon(spec)
	if !ok {
		return PointID{}, fmt.Errorf("spec %q: missing message field", spec)
	}
	rest, rawLevel, ok := splitLastColon(rest)
	if !ok {
		return PointID{}, fmt.Errorf("spec %q: missing level field", spec)
	}
	rest, rawFunction, ok := splitLastColon(rest)
	if !ok {
		return PointID{}, fmt.Errorf("spec %q: missing function field", spec)
	}
	file, rawLine, ok := splitLastColon(rest)
	if !ok {
		return PointID{}, fmt.Errorf("spec %q: missing line field", spec)
	}

	line, err := strconv.Atoi(rawLine)
	if err != nil {
		return PointID{}, fmt.Errorf("spec %q: line %q: %w", spec, rawLine, err)
	}

	message, err := PercentDecode(rawMessage)
	if err != nil {
		return PointID{}, fmt.Errorf("spec %q: message: %w", spec, err)
	}
	level, err := PercentDecode(rawLevel)
	if err != nil {
		return PointID{}, fmt.Errorf("spec %q: level: %w", spec, err)
	}
	function, err := PercentDecode(rawFunction)
	if err != nil {
		return PointID{}, fmt.Errorf("spec %q: function: %w", spec, err)
	}

	return PointID{
		File:     file,
		Line:     line,
		Function: function,
		Level:    level,
		Message:  message,
	}, nil
}

func splitLastColon(s string) (left, right string, ok bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

//
//
//

const upperhex = "0123456789ABCDEF"

// PercentEncode escapes every byte outside the RFC 3986 unreserved set —
// letters, digits, '-', '_', '.', '~' — as %XX. Unlike the stdlib url
// escapers, nothing else is left bare, so encoded fields can never contain
// the protocol's separator characters.
func PercentEncode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

// PercentDecode reverses PercentEncode, mapping each %XX back to its byte.
// A truncated or non-hex escape is an error.
func PercentDecode(s string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated percent escape in %q", s)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid percent escape %q", s[i:i+3])
		}
		sb.WriteByte(hi<<4 | lo)
		i += 2
	}
	return sb.String(), nil
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
