package engine

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndntg/namepush/cfg"
)

// Stats accumulates per-pattern and global publication counts. The engine
// loop is the only writer, but counters are atomics so the admin HTTP
// surface can snapshot them while a run is in flight. The invariant that
// the global total equals the sum of per-pattern counts holds because
// both are bumped together in one serial publish step.
type Stats struct {
	patterns    []cfg.Pattern
	published   []atomic.Uint64
	total       atomic.Uint64
	regFailures atomic.Uint64
	start       time.Time

	out        io.Writer
	reportOnce sync.Once
}

// NewStats creates a tracker for the loaded patterns, reporting to out
func NewStats(patterns []cfg.Pattern, out io.Writer) *Stats {
	return &Stats{
		patterns:  patterns,
		published: make([]atomic.Uint64, len(patterns)),
		start:     time.Now(),
		out:       out,
	}
}

// RecordPublish counts one publication for the pattern and returns the
// new local and global sequence numbers.
func (s *Stats) RecordPublish(id int) (local, global uint64) {
	local = s.published[id].Add(1)
	global = s.total.Add(1)
	return local, global
}

// RecordRegistrationFailure counts one failed prefix registration and
// returns the running failure count.
func (s *Stats) RecordRegistrationFailure() uint64 {
	return s.regFailures.Add(1)
}

// Total returns the global publication count
func (s *Stats) Total() uint64 {
	return s.total.Load()
}

// Published returns one pattern's publication count
func (s *Stats) Published(id int) uint64 {
	return s.published[id].Load()
}

// RegistrationFailures returns the failed-registration count
func (s *Stats) RegistrationFailures() uint64 {
	return s.regFailures.Load()
}

// PatternSnapshot is one pattern's live counters
type PatternSnapshot struct {
	Name      string `json:"name"`
	Published uint64 `json:"published"`
}

// Snapshot is a point-in-time view of the run, served on /statz
type Snapshot struct {
	Patterns             []PatternSnapshot `json:"patterns"`
	TotalPublished       uint64            `json:"total_published"`
	RegistrationFailures uint64            `json:"registration_failures"`
	UptimeSeconds        float64           `json:"uptime_seconds"`
}

// GetSnapshot returns the current counters
func (s *Stats) GetSnapshot() Snapshot {
	snap := Snapshot{
		Patterns:             make([]PatternSnapshot, len(s.patterns)),
		TotalPublished:       s.total.Load(),
		RegistrationFailures: s.regFailures.Load(),
		UptimeSeconds:        time.Since(s.start).Seconds(),
	}
	for i := range s.patterns {
		snap.Patterns[i] = PatternSnapshot{
			Name:      s.patterns[i].Name,
			Published: s.published[i].Load(),
		}
	}
	return snap
}

// Report renders the final traffic report. Every termination path calls
// it; only the first call emits anything.
func (s *Stats) Report() {
	s.reportOnce.Do(func() {
		fmt.Fprintf(s.out, "\n== Data Traffic Report ==\n\n")
		fmt.Fprintf(s.out, "Total Traffic Pattern Types = %d\n", len(s.patterns))
		fmt.Fprintf(s.out, "Total Data Published        = %d\n", s.total.Load())
		for i := range s.patterns {
			fmt.Fprintf(s.out, "\nTraffic Pattern Type #%d\n", i+1)
			fmt.Fprintf(s.out, "%s\n", s.patterns[i].Summary())
			fmt.Fprintf(s.out, "Total Data Published        = %d\n", s.published[i].Load())
		}
	})
}
