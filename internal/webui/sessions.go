// ABOUTME: In-memory map from browser session ID to conversation session
// ABOUTME: Idle sessions are dropped; their state is rebuilt from the store on return

package webui

import (
	"sync"
	"time"

	"github.com/2389/codechat/internal/conversation"
)

// pruneInterval limits how often idle sessions are swept
const pruneInterval = time.Minute

type sessionEntry struct {
	sess     *conversation.Session
	lastSeen time.Time
}

type sessionRegistry struct {
	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	idle      time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func newSessionRegistry(idle time.Duration) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*sessionEntry),
		idle:     idle,
		now:      time.Now,
	}
}

// get returns the session for id, creating it if needed. created is true
// when the session is new and has not been loaded from the store yet.
func (r *sessionRegistry) get(id string) (sess *conversation.Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastPrune) >= pruneInterval {
		r.pruneLocked(now)
	}

	if entry, ok := r.sessions[id]; ok {
		entry.lastSeen = now
		return entry.sess, false
	}

	entry := &sessionEntry{sess: conversation.NewSessionWithID(id), lastSeen: now}
	r.sessions[id] = entry
	return entry.sess, true
}

func (r *sessionRegistry) pruneLocked(now time.Time) {
	r.lastPrune = now
	if r.idle <= 0 {
		return
	}
	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.idle {
			delete(r.sessions, id)
		}
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
