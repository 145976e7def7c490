// ABOUTME: Store interface and data types for codechat persistence
// ABOUTME: Defines Chat, Message, GeneratedFile and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidReference is returned when a row points at a chat or message that does not exist
var ErrInvalidReference = errors.New("referenced row does not exist")

// ErrInvalidCategory is returned when a message category is neither user nor assistant
var ErrInvalidCategory = errors.New("invalid message category")

// Category identifies who authored a message
type Category string

// Message categories
const (
	CategoryUser      Category = "user"
	CategoryAssistant Category = "assistant"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c == CategoryUser || c == CategoryAssistant
}

// DefaultTitleLayout formats the creation time used as a chat title when none is given
const DefaultTitleLayout = "2006/01/02 15:04:05"

// Chat is a single conversation
type Chat struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one user or assistant turn within a chat
type Message struct {
	ID        int64
	ChatID    int64
	Category  Category
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneratedFile is an output artifact attached to an assistant message.
// Name is stored exactly as produced: it is neither deduplicated nor sanitized.
type GeneratedFile struct {
	ID        int64
	MessageID int64
	Name      string
	Content   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileContent is a name/bytes pair waiting to be persisted
type FileContent struct {
	Name    string
	Content []byte
}

// Store defines the interface for chat, message and generated file persistence
type Store interface {
	// Chats
	CreateChat(ctx context.Context, title string) (*Chat, error)
	RenameChat(ctx context.Context, id int64, title string) error
	ListChats(ctx context.Context) ([]*Chat, error)
	GetChat(ctx context.Context, id int64) (*Chat, error)

	// Messages
	CreateMessage(ctx context.Context, chatID int64, category Category, content string) (*Message, error)
	ListMessages(ctx context.Context, chatID int64) ([]*Message, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// Generated files
	CreateGeneratedFile(ctx context.Context, messageID int64, name string, content []byte) (*GeneratedFile, error)
	ListGeneratedFiles(ctx context.Context, messageID int64) ([]*GeneratedFile, error)
	GetGeneratedFile(ctx context.Context, id int64) (*GeneratedFile, error)

	// SaveAssistantTurn writes an assistant message and its files atomically
	SaveAssistantTurn(ctx context.Context, chatID int64, content string, files []FileContent) (*Message, []*GeneratedFile, error)

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}

// defaultTitle returns the title given to a chat created without one
func defaultTitle(now time.Time) string {
	return now.Local().Format(DefaultTitleLayout)
}
