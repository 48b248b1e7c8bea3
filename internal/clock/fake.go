package clock

import "time"

// FakeClock is a manually advanced clock for emission and sweep tests.
type FakeClock struct {
	now time.Time
}

// NewFakeClock pins the clock at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward, e.g. past a retry backoff or the
// sweep's minimum age.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
