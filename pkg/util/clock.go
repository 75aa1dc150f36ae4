package util

import "time"

// Clock abstracts wall time so order validity windows and auction pricing
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FrozenClock reports a fixed instant until advanced.
type FrozenClock struct {
	T time.Time
}

func (c *FrozenClock) Now() time.Time            { return c.T }
func (c *FrozenClock) Advance(d time.Duration)   { c.T = c.T.Add(d) }
func (c *FrozenClock) Set(unix int64)            { c.T = time.Unix(unix, 0) }
