// ABOUTME: Mock Store implementation for testing
// ABOUTME: In-memory chats/messages/files with per-operation error injection

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Operation names accepted by MockStore.FailOn
const (
	OpCreateChat          = "CreateChat"
	OpRenameChat          = "RenameChat"
	OpListChats           = "ListChats"
	OpGetChat             = "GetChat"
	OpCreateMessage       = "CreateMessage"
	OpListMessages        = "ListMessages"
	OpGetMessage          = "GetMessage"
	OpCreateGeneratedFile = "CreateGeneratedFile"
	OpListGeneratedFiles  = "ListGeneratedFiles"
	OpGetGeneratedFile    = "GetGeneratedFile"
	OpSaveAssistantTurn   = "SaveAssistantTurn"
	OpPing                = "Ping"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	chats    map[int64]*Chat
	messages map[int64]*Message
	files    map[int64]*GeneratedFile
	nextID   int64
	failures map[string]error // keyed by operation name
	now      func() time.Time
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		chats:    make(map[int64]*Chat),
		messages: make(map[int64]*Message),
		files:    make(map[int64]*GeneratedFile),
		failures: make(map[string]error),
		now:      time.Now,
	}
}

// FailOn makes every later call to op return err. A nil err clears the failure.
func (m *MockStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MockStore) failure(op string) error {
	return m.failures[op]
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// CreateChat stores a new chat.
func (m *MockStore) CreateChat(ctx context.Context, title string) (*Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpCreateChat); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if title == "" {
		title = defaultTitle(now)
	}
	c := &Chat{ID: m.id(), Title: title, CreatedAt: now, UpdatedAt: now}
	m.chats[c.ID] = c

	result := *c
	return &result, nil
}

// RenameChat updates the title of an existing chat; unknown IDs are ignored.
func (m *MockStore) RenameChat(ctx context.Context, id int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpRenameChat); err != nil {
		return err
	}

	c, ok := m.chats[id]
	if !ok {
		return nil
	}
	c.Title = title
	c.UpdatedAt = m.now().UTC()
	return nil
}

// ListChats returns copies of all chats, most recently updated first.
func (m *MockStore) ListChats(ctx context.Context) ([]*Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpListChats); err != nil {
		return nil, err
	}

	var result []*Chat
	for _, c := range m.chats {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetChat retrieves a chat by ID.
func (m *MockStore) GetChat(ctx context.Context, id int64) (*Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpGetChat); err != nil {
		return nil, err
	}

	c, ok := m.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// CreateMessage stores a message, enforcing the chat reference.
func (m *MockStore) CreateMessage(ctx context.Context, chatID int64, category Category, content string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpCreateMessage); err != nil {
		return nil, err
	}
	return m.createMessageLocked(chatID, category, content)
}

func (m *MockStore) createMessageLocked(chatID int64, category Category, content string) (*Message, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if _, ok := m.chats[chatID]; !ok {
		return nil, fmt.Errorf("inserting message for chat %d: %w", chatID, ErrInvalidReference)
	}

	now := m.now().UTC()
	msg := &Message{ID: m.id(), ChatID: chatID, Category: category, Content: content, CreatedAt: now, UpdatedAt: now}
	m.messages[msg.ID] = msg

	result := *msg
	return &result, nil
}

// ListMessages returns copies of a chat's messages in ID order.
func (m *MockStore) ListMessages(ctx context.Context, chatID int64) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpListMessages); err != nil {
		return nil, err
	}

	var result []*Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			cp := *msg
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetMessage retrieves a message by ID.
func (m *MockStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpGetMessage); err != nil {
		return nil, err
	}

	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *msg
	return &result, nil
}

// CreateGeneratedFile stores a file, enforcing the message reference.
func (m *MockStore) CreateGeneratedFile(ctx context.Context, messageID int64, name string, content []byte) (*GeneratedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpCreateGeneratedFile); err != nil {
		return nil, err
	}
	return m.createFileLocked(messageID, name, content)
}

func (m *MockStore) createFileLocked(messageID int64, name string, content []byte) (*GeneratedFile, error) {
	if _, ok := m.messages[messageID]; !ok {
		return nil, fmt.Errorf("inserting file for message %d: %w", messageID, ErrInvalidReference)
	}

	now := m.now().UTC()
	f := &GeneratedFile{
		ID:        m.id(),
		MessageID: messageID,
		Name:      name,
		Content:   append([]byte{}, content...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.files[f.ID] = f
	return copyFile(f), nil
}

func copyFile(f *GeneratedFile) *GeneratedFile {
	cp := *f
	cp.Content = append([]byte{}, f.Content...)
	return &cp
}

// ListGeneratedFiles returns copies of a message's files in ID order.
func (m *MockStore) ListGeneratedFiles(ctx context.Context, messageID int64) ([]*GeneratedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpListGeneratedFiles); err != nil {
		return nil, err
	}

	var result []*GeneratedFile
	for _, f := range m.files {
		if f.MessageID == messageID {
			result = append(result, copyFile(f))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetGeneratedFile retrieves a file by ID.
func (m *MockStore) GetGeneratedFile(ctx context.Context, id int64) (*GeneratedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpGetGeneratedFile); err != nil {
		return nil, err
	}

	f, ok := m.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFile(f), nil
}

// SaveAssistantTurn stores an assistant message and its files, all or nothing.
func (m *MockStore) SaveAssistantTurn(ctx context.Context, chatID int64, content string, files []FileContent) (*Message, []*GeneratedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpSaveAssistantTurn); err != nil {
		return nil, nil, err
	}

	msg, err := m.createMessageLocked(chatID, CategoryAssistant, content)
	if err != nil {
		return nil, nil, err
	}

	saved := make([]*GeneratedFile, 0, len(files))
	for _, f := range files {
		gf, err := m.createFileLocked(msg.ID, f.Name, f.Content)
		if err != nil {
			// Roll back everything written for this turn
			for _, s := range saved {
				delete(m.files, s.ID)
			}
			delete(m.messages, msg.ID)
			return nil, nil, err
		}
		saved = append(saved, gf)
	}
	return msg, saved, nil
}

// Ping reports the injected failure, if any.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failure(OpPing)
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
