package ytracectl

import (
	"fmt"
	"regexp"
)

// Filter selects listed points by regex over single fields, OR-combined:
// a point is allowed when any pattern of any field matches. An empty filter
// allows nothing, which is the safe default for bulk mutations; All
// overrides everything.
type Filter struct {
	All       bool
	Files     []*regexp.Regexp
	Functions []*regexp.Regexp
	Levels    []*regexp.Regexp
	Messages  []*regexp.Regexp
	Lines     []int
}

// NewFilter compiles the given patterns. Any invalid regex fails the whole
// filter: a mistyped pattern silently matching nothing would be worse.
func NewFilter(all bool, files, functions, levels, messages []string, lines []int) (Filter, error) {
	f := Filter{All: all, Lines: lines}

	var err error
	if f.Files, err = compilePatterns("file", files); err != nil {
		return Filter{}, err
	}
	if f.Functions, err = compilePatterns("function", functions); err != nil {
		return Filter{}, err
	}
	if f.Levels, err = compilePatterns("level", levels); err != nil {
		return Filter{}, err
	}
	if f.Messages, err = compilePatterns("message", messages); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func compilePatterns(field string, patterns []string) ([]*regexp.Regexp, error) {
	var res []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s regex %q: %w", field, p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Empty reports whether the filter has no criteria at all.
func (f Filter) Empty() bool {
	return !f.All &&
		len(f.Files) == 0 &&
		len(f.Functions) == 0 &&
		len(f.Levels) == 0 &&
		len(f.Messages) == 0 &&
		len(f.Lines) == 0
}

// Allow reports whether the point passes the filter.
func (f Filter) Allow(p ListedPoint) bool {
	if f.Empty() {
		return false
	}
	if f.All {
		return true
	}
	for _, re := range f.Files {
		if re.MatchString(p.File) {
			return true
		}
	}
	for _, re := range f.Functions {
		if re.MatchString(p.Function) {
			return true
		}
	}
	for _, line := range f.Lines {
		if p.Line == line {
			return true
		}
	}
	for _, re := range f.Levels {
		if re.MatchString(p.Level) {
			return true
		}
	}
	for _, re := range f.Messages {
		if re.MatchString(p.Message) {
			return true
		}
	}
	return false
}

// Apply returns the points allowed by the filter, preserving order.
func (f Filter) Apply(points []ListedPoint) []ListedPoint {
	var out []ListedPoint
	for _, p := range points {
		if f.Allow(p) {
			out = append(out, p)
		}
	}
	return out
}
