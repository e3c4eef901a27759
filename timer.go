package ytrace

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TimerStats is the running aggregate for one timer label. Avg, Min, and Max
// are in nanoseconds. The average is maintained incrementally, so the
// aggregate is O(1) in memory regardless of sample count.
type TimerStats struct {
	Count uint64
	Avg   float64
	Min   float64
	Max   float64
}

func (ts *TimerStats) observe(ns float64) {
	ts.Count++
	if ts.Count == 1 {
		ts.Avg, ts.Min, ts.Max = ns, ns, ns
		return
	}
	ts.Avg += (ns - ts.Avg) / float64(ts.Count)
	if ns < ts.Min {
		ts.Min = ns
	}
	if ns > ts.Max {
		ts.Max = ns
	}
}

// LabelStats is one label's aggregate, as returned by TimerSet.All.
type LabelStats struct {
	Label string
	TimerStats
}

// TimerSet aggregates scope-timer samples by label. It shares the locking
// discipline of the point table — one mutex over the whole set — but is a
// separate lock, so timer traffic never contends with point mutations.
// Aggregates are never persisted; a process restart resets them.
type TimerSet struct {
	mtx   sync.Mutex
	stats map[string]*TimerStats
	order []string
}

// NewTimerSet returns an empty timer set.
func NewTimerSet() *TimerSet {
	return &TimerSet{
		stats: map[string]*TimerStats{},
	}
}

// Record folds one sample into the label's aggregate, creating the aggregate
// on first observation.
func (s *TimerSet) Record(label string, d time.Duration) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ts, ok := s.stats[label]
	if !ok {
		ts = &TimerStats{}
		s.stats[label] = ts
		s.order = append(s.order, label)
	}
	ts.observe(float64(d.Nanoseconds()))
}

// Stats returns a copy of the label's aggregate, and whether the label has
// been observed at all.
func (s *TimerSet) Stats(label string) (TimerStats, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ts, ok := s.stats[label]
	if !ok {
		return TimerStats{}, false
	}
	return *ts, true
}

// All returns every label's aggregate in first-observation order.
func (s *TimerSet) All() []LabelStats {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	all := make([]LabelStats, 0, len(s.order))
	for _, label := range s.order {
		all = append(all, LabelStats{Label: label, TimerStats: *s.stats[label]})
	}
	return all
}

// Summary renders one line per label, in first-observation order, with
// durations in adaptive units. This is the payload of the protocol's timers
// command.
//
//	db_query: count=42 avg=1.84ms min=1.02ms max=5.00ms
func (s *TimerSet) Summary() string {
	all := s.All()
	if len(all) == 0 {
		return "(no timers)\n"
	}

	var sb strings.Builder
	for _, ls := range all {
		fmt.Fprintf(&sb, "%s: count=%d avg=%s min=%s max=%s\n",
			ls.Label, ls.Count, FormatDuration(ls.Avg), FormatDuration(ls.Min), FormatDuration(ls.Max))
	}
	return sb.String()
}

// FormatDuration renders a duration in nanoseconds with a unit chosen by
// magnitude: below 1e3 ns, whole nanoseconds; below 1e6, microseconds;
// below 1e9, milliseconds; otherwise seconds.
func FormatDuration(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.0fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2fus", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}
