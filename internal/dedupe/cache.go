// ABOUTME: Thread-safe TTL set of form submit tokens
// ABOUTME: Lets the web UI drop a browser's resubmission of a turn it already ran

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxTokens bounds the set when the caller passes a non-positive size
const DefaultMaxTokens = 10000

// maxSweepInterval caps how long expired tokens linger between sweeps
const maxSweepInterval = time.Minute

type token struct {
	seenAt  time.Time
	element *list.Element
}

// Tokens remembers submit tokens for a fixed window. It is bounded in size;
// when full the oldest token is dropped first.
type Tokens struct {
	mu      sync.Mutex
	seen    map[string]*token
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a token set with the given TTL and size bound and starts a
// background sweep of expired tokens. Call Close to stop it.
func New(ttl time.Duration, maxSize int) *Tokens {
	if maxSize <= 0 {
		maxSize = DefaultMaxTokens
	}
	t := &Tokens{
		seen:    make(map[string]*token),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go t.sweepLoop()
	return t
}

// Seen reports whether key was already recorded within the TTL, and records
// it if not. The check and the mark happen under one lock, so of several
// concurrent callers with the same key exactly one gets false.
func (t *Tokens) Seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if tok, ok := t.seen[key]; ok {
		if now.Sub(tok.seenAt) < t.ttl {
			return true
		}
		t.removeLocked(key, tok)
	}

	if len(t.seen) >= t.maxSize {
		t.evictOldestLocked()
	}
	t.seen[key] = &token{seenAt: now, element: t.order.PushBack(key)}
	return false
}

// Forget drops key so the same submission can be retried
func (t *Tokens) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok, ok := t.seen[key]; ok {
		t.removeLocked(key, tok)
	}
}

// Len returns the number of tokens currently held, expired or not
func (t *Tokens) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func (t *Tokens) removeLocked(key string, tok *token) {
	t.order.Remove(tok.element)
	delete(t.seen, key)
}

func (t *Tokens) evictOldestLocked() {
	front := t.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	t.order.Remove(front)
	delete(t.seen, key)
}

func (t *Tokens) sweepLoop() {
	interval := t.ttl
	if interval <= 0 || interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.done:
			return
		}
	}
}

// sweep removes expired tokens. Tokens are ordered by seenAt, so it stops
// at the first live one.
func (t *Tokens) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for e := t.order.Front(); e != nil; {
		key, _ := e.Value.(string)
		tok := t.seen[key]
		if tok == nil || now.Sub(tok.seenAt) < t.ttl {
			return
		}
		next := e.Next()
		t.removeLocked(key, tok)
		e = next
	}
}

// Close stops the background sweep. It is safe to call multiple times.
func (t *Tokens) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		close(t.done)
		t.closed = true
	}
}
