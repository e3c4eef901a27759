package ytracectl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytrace-dev/ytrace"
)

// ListedPoint is one parsed line of a server's list response.
type ListedPoint struct {
	Index   int
	Enabled bool
	ytrace.PointID
}

// listingLine matches the server's listing format:
//
//	0 [ON]  [info] /path/file.go:123 (handleRequest) "starting"
//
// The file field is greedy, so a path containing parentheses or brackets
// still parses; the line number anchor after the last colon disambiguates.
var listingLine = regexp.MustCompile(`^(\d+)\s+\[(ON|OFF)\]\s+\[([^\]]+)\]\s+(.+):(\d+)\s+\(([^)]+)\)\s+"(.*)"$`)

// ParseListing parses a full list response into structured points, skipping
// lines that don't match the listing format.
func ParseListing(response string) []ListedPoint {
	var points []ListedPoint
	for _, line := range strings.Split(response, "\n") {
		m := listingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		lineNum, err := strconv.Atoi(m[5])
		if err != nil {
			continue
		}
		points = append(points, ListedPoint{
			Index:   index,
			Enabled: m[2] == "ON",
			PointID: ytrace.PointID{
				File:     m[4],
				Line:     lineNum,
				Function: m[6],
				Level:    m[3],
				Message:  unquoteMessage(m[7]),
			},
		})
	}
	return points
}

// unquoteMessage undoes the %q quoting the server applies to the message
// column. Falls back to the raw text when the quoted form doesn't parse,
// which can only happen for truncated lines.
func unquoteMessage(s string) string {
	if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return unquoted
	}
	return s
}

// Render formats the point the way ytrace-ctl prints filtered listings:
// like a server listing line, without the index column.
func (p ListedPoint) Render() string {
	state := "[OFF]"
	if p.Enabled {
		state = "[ON] "
	}
	return state + " [" + p.Level + "] " + p.File + ":" + strconv.Itoa(p.Line) + " (" + p.Function + ") " + strconv.Quote(p.Message)
}
