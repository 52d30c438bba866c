// Package throttle gates login attempts per peer IP and write actions
// per user.
package throttle

import (
	"sync"
	"time"
)

// Login throttler defaults.
const (
	DefaultMaxFailures = 5
	DefaultWindow      = 15 * time.Minute
	DefaultLockout     = 15 * time.Minute
)

// LoginDecision is the outcome of a throttler check.
type LoginDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type loginEntry struct {
	failures    []time.Time
	lockedUntil time.Time
}

// LoginThrottler counts authentication failures per peer IP and locks a
// peer out once the failure budget for the window is spent.
type LoginThrottler struct {
	mu          sync.Mutex
	entries     map[string]*loginEntry
	maxFailures int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

// NewLoginThrottler builds a throttler. Non-positive arguments fall back
// to the defaults.
func NewLoginThrottler(maxFailures int, window, lockout time.Duration) *LoginThrottler {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &LoginThrottler{
		entries:     make(map[string]*loginEntry),
		maxFailures: maxFailures,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

// Check reports whether the peer may attempt a login. Locked peers get
// the remaining lockout duration; no failure is recorded here.
func (t *LoginThrottler) Check(ip string) LoginDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e := t.entries[ip]
	if e == nil {
		return LoginDecision{Allowed: true}
	}
	if now.Before(e.lockedUntil) {
		return LoginDecision{RetryAfter: e.lockedUntil.Sub(now)}
	}
	return LoginDecision{Allowed: true}
}

// RecordFailure counts one failed attempt. Failures older than the
// window expire first; crossing the budget starts the lockout.
func (t *LoginThrottler) RecordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.evictStale(now)

	e := t.entries[ip]
	if e == nil {
		e = &loginEntry{}
		t.entries[ip] = e
	}
	e.failures = append(trimBefore(e.failures, now.Add(-t.window)), now)
	if len(e.failures) >= t.maxFailures {
		e.lockedUntil = now.Add(t.lockout)
		e.failures = nil
	}
}

// Clear forgets the peer. Called after a successful authentication.
func (t *LoginThrottler) Clear(ip string) {
	t.mu.Lock()
	delete(t.entries, ip)
	t.mu.Unlock()
}

// evictStale drops entries that carry neither a live lock nor a recent
// failure. Caller holds t.mu.
func (t *LoginThrottler) evictStale(now time.Time) {
	cutoff := now.Add(-t.window)
	for ip, e := range t.entries {
		if now.Before(e.lockedUntil) {
			continue
		}
		if len(trimBefore(e.failures, cutoff)) == 0 {
			delete(t.entries, ip)
		}
	}
}

func trimBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	return stamps[i:]
}
