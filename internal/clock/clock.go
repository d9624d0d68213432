// Package clock provides the monotonic time capability used by the controller.
package clock

import "time"

// Clock reports elapsed milliseconds and blocks for fixed delays.
type Clock interface {
	// Millis returns milliseconds since the clock started. Monotonic.
	Millis() int64

	// Sleep blocks for d.
	Sleep(d time.Duration)

	// Now returns the wall-clock time, used to stamp events.
	Now() time.Time
}

// Real is a Clock backed by the runtime's monotonic clock.
type Real struct {
	start time.Time
}

// NewReal creates a Real clock starting now.
func NewReal() *Real {
	return &Real{start: time.Now()}
}

// Millis returns milliseconds since NewReal.
func (r *Real) Millis() int64 {
	return time.Since(r.start).Milliseconds()
}

// Sleep blocks for d.
func (r *Real) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Now returns the current time.
func (r *Real) Now() time.Time {
	return time.Now()
}

// Fake is a manually driven Clock for tests. Not safe for concurrent use.
type Fake struct {
	start time.Time
	now   time.Time

	// Step, if non-zero, advances the clock after every Millis call. Busy
	// loops that poll Millis then terminate without a real wait.
	Step time.Duration

	// Slept records every Sleep duration.
	Slept []time.Duration
}

// NewFake creates a Fake clock at start.
func NewFake(start time.Time) *Fake {
	return &Fake{start: start, now: start}
}

// Millis returns the elapsed fake time, then applies Step.
func (f *Fake) Millis() int64 {
	ms := f.now.Sub(f.start).Milliseconds()
	f.now = f.now.Add(f.Step)
	return ms
}

// Sleep advances the clock by d.
func (f *Fake) Sleep(d time.Duration) {
	f.Slept = append(f.Slept, d)
	f.now = f.now.Add(d)
}

// Now returns the fake wall-clock time.
func (f *Fake) Now() time.Time {
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Elapsed returns the fake time since start without applying Step.
func (f *Fake) Elapsed() time.Duration {
	return f.now.Sub(f.start)
}

// TotalSlept returns the sum of all Sleep durations.
func (f *Fake) TotalSlept() time.Duration {
	var total time.Duration
	for _, d := range f.Slept {
		total += d
	}
	return total
}
