// Package progress carries phase progress from the pipeline to whatever
// renders it.
package progress

import (
	"sync"
	"time"
)

// Phase names a stage of the reload pipeline.
type Phase string

const (
	PhaseDownload Phase = "download"
	PhaseExtract  Phase = "extract"
	PhaseParse    Phase = "parse"
	PhaseLoad     Phase = "load"
	PhaseResolve  Phase = "resolve"
)

// Unknown is the Total of an update whose total is not known.
const Unknown int64 = -1

// Update reports Current units (bytes or records) processed in Phase.
type Update struct {
	Phase   Phase
	Current int64
	Total   int64
}

// Sink receives updates. A nil Sink discards them.
type Sink func(Update)

// Report delivers u if s is non-nil.
func (s Sink) Report(u Update) {
	if s != nil {
		s(u)
	}
}

// Throttle returns a Sink that forwards at most one update per interval for
// each phase. Final updates (Current == Total) always pass.
func Throttle(s Sink, interval time.Duration) Sink {
	if s == nil || interval <= 0 {
		return s
	}
	var mu sync.Mutex
	last := make(map[Phase]time.Time)
	return func(u Update) {
		now := time.Now()
		mu.Lock()
		prev, seen := last[u.Phase]
		final := u.Total >= 0 && u.Current >= u.Total
		if seen && !final && now.Sub(prev) < interval {
			mu.Unlock()
			return
		}
		last[u.Phase] = now
		mu.Unlock()
		s(u)
	}
}
