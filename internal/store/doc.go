// Package store provides persistent storage for codechat using SQLite.
//
// # Data Models
//
//   - Chat: a conversation with a title; listed most recently updated first
//   - Message: one user or assistant turn within a chat
//   - GeneratedFile: an output artifact attached to an assistant message
//
// Identities are SQLite AUTOINCREMENT integers, so ordering messages or
// files by ID is the same as ordering them by creation.
//
// # SQLite Configuration
//
// The store holds a single connection and enables:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// With foreign keys on, a message for a missing chat or a file for a missing
// message fails with ErrInvalidReference instead of leaving a dangling row.
//
// Table names (chats, chat_messages, generated_files) match the chat.db files
// written by earlier releases, and timestamps in their older layouts are
// still accepted when reading.
//
// # Atomic Turns
//
// SaveAssistantTurn writes an assistant message and all of its files inside
// one transaction. A failure at any point rolls everything back.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrInvalidReference: parent chat or message does not exist
//   - ErrInvalidCategory: category is not "user" or "assistant"
//
// RenameChat on an unknown ID is a silent no-op.
//
// # Testing
//
// Use NewMockStore() for unit tests that need failure injection, and
// NewSQLiteStore(filepath.Join(t.TempDir(), "test.db")) for integration tests.
package store
