package engine

import "time"

// Clock is the recurring publication deadline for one pattern. Successive
// deadlines are computed from the previous *scheduled* deadline rather
// than the actual fire time, so per-firing processing latency and delays
// never accumulate as drift.
type Clock struct {
	interval time.Duration
	next     time.Time
	timer    *time.Timer
	now      func() time.Time
}

// NewClock creates a clock with the pattern's generation interval
func NewClock(interval time.Duration) *Clock {
	return &Clock{interval: interval, now: time.Now}
}

// Start arms the first firing one full interval out
func (c *Clock) Start(fire func()) {
	c.next = c.now().Add(c.interval)
	c.timer = time.AfterFunc(c.interval, fire)
}

// Rearm schedules the next firing at the previous scheduled deadline plus
// one interval. A deadline already in the past fires immediately.
func (c *Clock) Rearm() {
	if c.timer == nil {
		return
	}
	c.next = c.next.Add(c.interval)
	d := c.next.Sub(c.now())
	if d < 0 {
		d = 0
	}
	c.timer.Reset(d)
}

// Stop cancels any pending firing. Safe when never armed and safe to
// call repeatedly.
func (c *Clock) Stop() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

// NextDeadline returns the currently scheduled deadline
func (c *Clock) NextDeadline() time.Time {
	return c.next
}
