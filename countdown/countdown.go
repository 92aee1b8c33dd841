// Package countdown provides a monotonic deadline used to bound polling loops.
package countdown

import "time"

// Timer expires once its duration has elapsed since it was created. It reads
// the monotonic clock and cannot be reset.
type Timer struct {
	start    time.Time
	duration time.Duration
}

// New starts a timer. A zero or negative duration is already expired.
func New(d time.Duration) *Timer {
	if d < 0 {
		d = 0
	}
	return &Timer{start: time.Now(), duration: d}
}

// IsTimeUp reports whether the duration has elapsed.
func (t *Timer) IsTimeUp() bool {
	return time.Since(t.start) >= t.duration
}

// Elapsed returns the time since the timer was started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Remaining returns the time left before expiry, never negative.
func (t *Timer) Remaining() time.Duration {
	left := t.duration - time.Since(t.start)
	if left < 0 {
		return 0
	}
	return left
}

// Duration returns the configured duration.
func (t *Timer) Duration() time.Duration {
	return t.duration
}
