package media

import "time"

// SystemClock is the production Clock, backed by the real wall clock.
type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// SystemClock is the default Clock implementation.
var SystemClock Clock = systemClock{}

// FakeClock is a settable Clock for deterministic tests.
type FakeClock struct {
	t int64
}

// NewFakeClock returns a FakeClock initialized to t.
func NewFakeClock(t int64) *FakeClock { return &FakeClock{t: t} }

// Now returns the current fake time.
func (c *FakeClock) Now() int64 { return c.t }

// Advance moves the fake clock forward by d seconds.
func (c *FakeClock) Advance(d int64) { c.t += d }
