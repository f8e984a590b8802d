package session

import (
	"sync"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// Clock owns the single proactive refresh timer. Scheduling replaces any
// earlier timer, so repeated logins within one process never stack
// refresh storms.
type Clock struct {
	mu     sync.Mutex
	timer  *time.Timer
	buffer time.Duration

	// Swapped out by tests for deterministic scheduling.
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewClock creates a Clock that fires buffer ahead of token expiry.
func NewClock(buffer time.Duration) *Clock {
	if buffer <= 0 {
		buffer = token.DefaultRefreshBuffer
	}
	return &Clock{
		buffer:    buffer,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Schedule arms the timer to fire onDue at expiry minus the buffer,
// clamped at zero, cancelling any prior timer. Undecodable, non-expiring
// and already-expired tokens arm nothing; the caller owns immediate
// refresh or logout in those cases.
func (c *Clock) Schedule(tok string, onDue func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()

	claims := token.Decode(tok)
	if claims == nil {
		return
	}
	exp, ok := claims.ExpiresAt()
	if !ok {
		return
	}

	now := c.now()
	if !exp.After(now) {
		return
	}

	delay := exp.Sub(now) - c.buffer
	if delay < 0 {
		delay = 0
	}
	c.timer = c.afterFunc(delay, onDue)
}

// Cancel clears the pending timer. Safe when none is armed.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Pending reports whether a timer is currently armed.
func (c *Clock) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Clock) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
