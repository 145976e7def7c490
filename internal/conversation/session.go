// ABOUTME: Per-user conversation state: selected chat, chat list and message list
// ABOUTME: A cache over the store, replaced wholesale after every mutation

package conversation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/2389/codechat/internal/store"
)

// Session holds what one user currently sees. Its contents are copies of
// store rows and are refreshed by the Service after every mutation.
type Session struct {
	id string

	mu       sync.RWMutex
	current  *store.Chat
	chats    []*store.Chat
	messages []*store.Message
}

// NewSession creates an empty session with a random ID
func NewSession() *Session {
	return &Session{id: uuid.New().String()}
}

// NewSessionWithID creates an empty session for an ID issued elsewhere,
// such as a browser session cookie
func NewSessionWithID(id string) *Session {
	if id == "" {
		return NewSession()
	}
	return &Session{id: id}
}

// ID identifies the session in logs and cookies
func (s *Session) ID() string {
	return s.id
}

// CurrentChat returns the selected chat, or nil if none is selected
func (s *Session) CurrentChat() *store.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CurrentChatID returns the selected chat's ID and whether one is selected
func (s *Session) CurrentChatID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return 0, false
	}
	return s.current.ID, true
}

// Chats returns the chat list as of the last reload, most recent first
func (s *Session) Chats() []*store.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*store.Chat(nil), s.chats...)
}

// Messages returns the selected chat's messages as of the last reload
func (s *Session) Messages() []*store.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*store.Message(nil), s.messages...)
}

// replace swaps in freshly queried state
func (s *Session) replace(current *store.Chat, chats []*store.Chat, messages []*store.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.chats = chats
	s.messages = messages
}
