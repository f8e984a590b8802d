package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func fakeClock(t *testing.T, buffer time.Duration, now time.Time) (*Clock, *[]time.Duration) {
	t.Helper()
	// Token expiries round-trip through Unix seconds, so keep now on a
	// whole second for exact delay arithmetic.
	now = now.Truncate(time.Second)
	var delays []time.Duration
	c := NewClock(buffer)
	c.now = func() time.Time { return now }
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		delays = append(delays, d)
		timer := time.AfterFunc(time.Hour, f)
		t.Cleanup(func() { timer.Stop() })
		return timer
	}
	return c, &delays
}

func tokenExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"user_id": 1, "exp": exp.Unix()})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return fmt.Sprintf("h.%s.s", base64.RawURLEncoding.EncodeToString(payload))
}

func TestScheduleFiresBufferAheadOfExpiry(t *testing.T) {
	now := time.Now()
	c, delays := fakeClock(t, 5*time.Minute, now)

	c.Schedule(tokenExpiring(t, now.Add(30*time.Minute)), func() {})

	if !c.Pending() {
		t.Fatal("expected an armed timer")
	}
	if len(*delays) != 1 || (*delays)[0] != 25*time.Minute {
		t.Fatalf("expected one 25m delay, got %v", *delays)
	}
}

func TestScheduleClampsDelayAtZero(t *testing.T) {
	now := time.Now()
	c, delays := fakeClock(t, 5*time.Minute, now)

	// Expires inside the buffer: refresh is due immediately, never in the
	// past.
	c.Schedule(tokenExpiring(t, now.Add(2*time.Minute)), func() {})

	if len(*delays) != 1 || (*delays)[0] != 0 {
		t.Fatalf("expected a zero delay, got %v", *delays)
	}
}

func TestScheduleIgnoresUnusableTokens(t *testing.T) {
	now := time.Now()
	c, delays := fakeClock(t, 5*time.Minute, now)

	nonExpiring, err := json.Marshal(map[string]any{"user_id": 1})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}

	cases := map[string]string{
		"undecodable": "not-a-token",
		"expired":     tokenExpiring(t, now.Add(-time.Minute)),
		"no expiry":   "h." + base64.RawURLEncoding.EncodeToString(nonExpiring) + ".s",
	}
	for name, tok := range cases {
		c.Schedule(tok, func() {})
		if c.Pending() {
			t.Fatalf("%s: expected no armed timer", name)
		}
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no timers armed, got delays %v", *delays)
	}
}

func TestScheduleReplacesPriorTimer(t *testing.T) {
	now := time.Now()
	c, delays := fakeClock(t, 5*time.Minute, now)

	c.Schedule(tokenExpiring(t, now.Add(10*time.Minute)), func() {})
	c.Schedule(tokenExpiring(t, now.Add(20*time.Minute)), func() {})

	if len(*delays) != 2 || (*delays)[1] != 15*time.Minute {
		t.Fatalf("expected the second schedule to win, got %v", *delays)
	}
	if !c.Pending() {
		t.Fatal("expected an armed timer")
	}

	c.Cancel()
	if c.Pending() {
		t.Fatal("expected no timer after cancel")
	}
	c.Cancel() // idempotent
}

func TestScheduledTimerFires(t *testing.T) {
	c := NewClock(time.Second)

	fired := make(chan struct{})
	c.Schedule(tokenExpiring(t, time.Now().Add(time.Second)), func() { close(fired) })
	t.Cleanup(c.Cancel)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}
