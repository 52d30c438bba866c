package throttle

import (
	"container/list"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxEntries bounds the number of per-user limiter entries kept
// in memory.
const DefaultMaxEntries = 1024

// Decision is the outcome of a rate-limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type rateEntry struct {
	userID  int64
	limiter *rate.Limiter
	lru     *list.Element
}

// RateLimiter is a per-user token bucket for one action kind (mail
// send, post create). Check never consumes; Record consumes one token
// and is called only after the action succeeded. Entries are evicted
// least-recently-used once the map is full.
type RateLimiter struct {
	mu         sync.Mutex
	entries    map[int64]*rateEntry
	order      *list.List // front = most recently used
	maxEntries int
	limit      rate.Limit
	burst      int
}

// NewRateLimiter builds a limiter allowing `capacity` actions at once,
// refilling one token every `refill`.
func NewRateLimiter(capacity int, refill time.Duration) *RateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if refill <= 0 {
		refill = time.Second
	}
	return &RateLimiter{
		entries:    make(map[int64]*rateEntry),
		order:      list.New(),
		maxEntries: DefaultMaxEntries,
		limit:      rate.Every(refill),
		burst:      capacity,
	}
}

// Check reports whether the user has a token available, without
// consuming it. Denied callers get the wait until the next token.
func (r *RateLimiter) Check(userID int64) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.get(userID)
	if e.limiter.Tokens() >= 1 {
		return Decision{Allowed: true}
	}
	return Decision{RetryAfter: r.untilNextToken(e.limiter)}
}

// Record consumes one token. Call only after the gated action has been
// committed, so failed actions never spend budget.
func (r *RateLimiter) Record(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(userID).limiter.Allow()
}

func (r *RateLimiter) get(userID int64) *rateEntry {
	if e, ok := r.entries[userID]; ok {
		r.order.MoveToFront(e.lru)
		return e
	}
	if len(r.entries) >= r.maxEntries {
		if back := r.order.Back(); back != nil {
			victim := back.Value.(*rateEntry)
			r.order.Remove(back)
			delete(r.entries, victim.userID)
		}
	}
	e := &rateEntry{
		userID:  userID,
		limiter: rate.NewLimiter(r.limit, r.burst),
	}
	e.lru = r.order.PushFront(e)
	r.entries[userID] = e
	return e
}

func (r *RateLimiter) untilNextToken(l *rate.Limiter) time.Duration {
	deficit := 1 - l.Tokens()
	if deficit <= 0 {
		return 0
	}
	secs := deficit / float64(r.limit)
	return time.Duration(math.Ceil(secs)) * time.Second
}
