package runner

import (
	"sync"
	"time"
)

// DefaultLogInterval is the minimum wall time between two identical log lines.
const DefaultLogInterval = 500 * time.Millisecond

// Throttle rate-limits messages per distinct text.
type Throttle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewThrottle creates a throttle. A nil now uses time.Now.
func NewThrottle(interval time.Duration, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		interval: interval,
		now:      now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether msg may be emitted now and, if so, records it.
func (t *Throttle) Allow(msg string) bool {
	if t.interval <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[msg]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[msg] = now
	return true
}
