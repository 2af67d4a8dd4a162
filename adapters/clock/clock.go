// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/artpar/cmsdesk/ports"
)

// Real returns the actual current time in UTC.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fake provides a controllable clock for testing. When Step is non-zero
// every call to Now advances the clock by Step after reading it, which
// gives successive snapshots distinct timestamps.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewFake creates a fake clock set to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// NewTicking creates a fake clock that advances by step on every read.
func NewTicking(t time.Time, step time.Duration) *Fake {
	return &Fake{current: t, step: step}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.current
	f.current = f.current.Add(f.step)
	return now
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time forward by duration d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

var (
	_ ports.Clock = Real{}
	_ ports.Clock = (*Fake)(nil)
)
