package wlancrypto

import "time"

// Clock is the injected monotonic tick source the Michael-failure
// controller measures its 60-second window against (spec section 9,
// "Implementations should encapsulate this as an injected clock interface
// to keep the controller testable").
type Clock interface {
	// Ticks returns the current monotonic tick count.
	Ticks() int64
	// TicksPerSecond reports the clock's resolution.
	TicksPerSecond() int64
}

// systemClock adapts time.Now's monotonic reading to the Clock interface,
// ticking in milliseconds.
type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock backed by the process's monotonic clock.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Ticks() int64 {
	return time.Since(c.start).Milliseconds()
}

func (c *systemClock) TicksPerSecond() int64 { return 1000 }

// FakeClock is a manually-advanced Clock for deterministic countermeasures
// tests (spec section 8, "two MIC failures 30s apart... 90s apart").
type FakeClock struct {
	ticks int64
	tps   int64
}

// NewFakeClock creates a FakeClock with the given ticks-per-second.
func NewFakeClock(ticksPerSecond int64) *FakeClock {
	return &FakeClock{tps: ticksPerSecond}
}

func (c *FakeClock) Ticks() int64 { return c.ticks }

func (c *FakeClock) TicksPerSecond() int64 { return c.tps }

// Advance moves the fake clock forward by the given number of seconds.
func (c *FakeClock) Advance(seconds float64) {
	c.ticks += int64(seconds * float64(c.tps))
}

// Set pins the fake clock to an absolute tick value.
func (c *FakeClock) Set(ticks int64) { c.ticks = ticks }
