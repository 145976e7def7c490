// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides chat/message/file persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that lexicographic order matches time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// legacyTimeLayouts are accepted when reading rows written by older clients
var legacyTimeLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One shared handle for the whole process; pragmas below are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// Table names match the chat.db layout of earlier releases.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT 'New Chat',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			category TEXT NOT NULL CHECK (category IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (chat_id) REFERENCES chats(id)
		);

		CREATE TABLE IF NOT EXISTS generated_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_message_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			content BLOB,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (chat_message_id) REFERENCES chat_messages(id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies index migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	migrations := []struct {
		table string // Table the index belongs to
		index string // Index name, checked via pragma_index_list
		apply string // Query to apply the migration
	}{
		{
			table: "chats",
			index: "idx_chats_updated_at",
			apply: `CREATE INDEX idx_chats_updated_at ON chats(updated_at DESC)`,
		},
		{
			table: "chat_messages",
			index: "idx_chat_messages_chat_id",
			apply: `CREATE INDEX idx_chat_messages_chat_id ON chat_messages(chat_id, id)`,
		},
		{
			table: "generated_files",
			index: "idx_generated_files_message_id",
			apply: `CREATE INDEX idx_generated_files_message_id ON generated_files(chat_message_id, id)`,
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(`SELECT 1 FROM pragma_index_list(?) WHERE name = ?`, m.table, m.index).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking index %s: %w", m.index, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("creating index %s: %w", m.index, err)
		}
		s.logger.Info("applied migration", "index", m.index, "table", m.table)
	}

	return nil
}

// Ping checks that the database connection is alive
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// formatTime renders t in the layout used for every timestamp column
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the current layout and those written by older clients
func parseTime(s string) (time.Time, error) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// timeColumn scans a DATETIME column that the driver may hand back as text or time.Time
type timeColumn struct {
	dst *time.Time
}

func (c timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.dst = v
		return nil
	case string:
		t, err := parseTime(v)
		if err != nil {
			return err
		}
		*c.dst = t
		return nil
	case []byte:
		t, err := parseTime(string(v))
		if err != nil {
			return err
		}
		*c.dst = t
		return nil
	case nil:
		*c.dst = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

// isForeignKeyViolation checks if the error is a SQLite FOREIGN KEY constraint violation
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateChat inserts a chat. An empty title is replaced by the creation time.
func (s *SQLiteStore) CreateChat(ctx context.Context, title string) (*Chat, error) {
	now := s.now()
	if title == "" {
		title = defaultTitle(now)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (title, created_at, updated_at)
		VALUES (?, ?, ?)
	`, title, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting chat: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting chat id: %w", err)
	}

	s.logger.Debug("created chat", "id", id, "title", title)
	return &Chat{
		ID:        id,
		Title:     title,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// RenameChat sets a new title and bumps updated_at.
// Renaming a chat that does not exist changes nothing and is not an error.
func (s *SQLiteStore) RenameChat(ctx context.Context, id int64, title string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chats
		SET title = ?, updated_at = ?
		WHERE id = ?
	`, title, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("updating chat title: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.Debug("rename skipped, chat not found", "id", id)
		return nil
	}

	s.logger.Debug("renamed chat", "id", id)
	return nil
}

// ListChats returns every chat, most recently updated first
func (s *SQLiteStore) ListChats(ctx context.Context) ([]*Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM chats
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ID, &chat.Title, timeColumn{&chat.CreatedAt}, timeColumn{&chat.UpdatedAt}); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		chats = append(chats, &chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat rows: %w", err)
	}

	return chats, nil
}

// GetChat retrieves a chat by ID.
// Returns ErrNotFound if the chat doesn't exist.
func (s *SQLiteStore) GetChat(ctx context.Context, id int64) (*Chat, error) {
	var chat Chat
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM chats
		WHERE id = ?
	`, id).Scan(&chat.ID, &chat.Title, timeColumn{&chat.CreatedAt}, timeColumn{&chat.UpdatedAt})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}

	return &chat, nil
}

// CreateMessage saves a message in a chat.
// Returns ErrInvalidReference if the chat doesn't exist.
func (s *SQLiteStore) CreateMessage(ctx context.Context, chatID int64, category Category, content string) (*Message, error) {
	return s.insertMessage(ctx, s.db, chatID, category, content)
}

func (s *SQLiteStore) insertMessage(ctx context.Context, db execer, chatID int64, category Category, content string) (*Message, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	now := s.now()
	result, err := db.ExecContext(ctx, `
		INSERT INTO chat_messages (chat_id, category, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, chatID, string(category), content, formatTime(now), formatTime(now))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("inserting message for chat %d: %w", chatID, ErrInvalidReference)
		}
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	s.logger.Debug("saved message", "id", id, "chat_id", chatID, "category", category)
	return &Message{
		ID:        id,
		ChatID:    chatID,
		Category:  category,
		Content:   content,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage reads a chat_messages row, tolerating NULLs left by older clients
func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	var chatID sql.NullInt64
	var category, content sql.NullString

	if err := row.Scan(&msg.ID, &chatID, &category, &content, timeColumn{&msg.CreatedAt}, timeColumn{&msg.UpdatedAt}); err != nil {
		return nil, err
	}

	msg.ChatID = chatID.Int64
	msg.Category = Category(category.String)
	msg.Content = content.String
	return &msg, nil
}

// ListMessages returns the messages of a chat in creation order
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID int64) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, category, content, created_at, updated_at
		FROM chat_messages
		WHERE chat_id = ?
		ORDER BY id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// GetMessage retrieves a message by ID.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	msg, err := scanMessage(s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, category, content, created_at, updated_at
		FROM chat_messages
		WHERE id = ?
	`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	return msg, nil
}

// CreateGeneratedFile stores an output file against a message.
// Returns ErrInvalidReference if the message doesn't exist.
func (s *SQLiteStore) CreateGeneratedFile(ctx context.Context, messageID int64, name string, content []byte) (*GeneratedFile, error) {
	return s.insertGeneratedFile(ctx, s.db, messageID, name, content)
}

func (s *SQLiteStore) insertGeneratedFile(ctx context.Context, db execer, messageID int64, name string, content []byte) (*GeneratedFile, error) {
	now := s.now()
	if content == nil {
		content = []byte{}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO generated_files (chat_message_id, name, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, messageID, name, content, formatTime(now), formatTime(now))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("inserting file for message %d: %w", messageID, ErrInvalidReference)
		}
		return nil, fmt.Errorf("inserting generated file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting generated file id: %w", err)
	}

	s.logger.Debug("saved generated file", "id", id, "message_id", messageID, "name", name, "size", len(content))
	return &GeneratedFile{
		ID:        id,
		MessageID: messageID,
		Name:      name,
		Content:   content,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// scanGeneratedFile reads a generated_files row
func scanGeneratedFile(row rowScanner) (*GeneratedFile, error) {
	var f GeneratedFile
	var messageID sql.NullInt64
	var name sql.NullString

	if err := row.Scan(&f.ID, &messageID, &name, &f.Content, timeColumn{&f.CreatedAt}, timeColumn{&f.UpdatedAt}); err != nil {
		return nil, err
	}

	f.MessageID = messageID.Int64
	f.Name = name.String
	if f.Content == nil {
		f.Content = []byte{}
	}
	return &f, nil
}

// ListGeneratedFiles returns the files attached to a message in creation order
func (s *SQLiteStore) ListGeneratedFiles(ctx context.Context, messageID int64) ([]*GeneratedFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_message_id, name, content, created_at, updated_at
		FROM generated_files
		WHERE chat_message_id = ?
		ORDER BY id ASC
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("querying generated files: %w", err)
	}
	defer rows.Close()

	var files []*GeneratedFile
	for rows.Next() {
		f, err := scanGeneratedFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generated file row: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generated file rows: %w", err)
	}

	return files, nil
}

// GetGeneratedFile retrieves a generated file by ID.
// Returns ErrNotFound if the file doesn't exist.
func (s *SQLiteStore) GetGeneratedFile(ctx context.Context, id int64) (*GeneratedFile, error) {
	f, err := scanGeneratedFile(s.db.QueryRowContext(ctx, `
		SELECT id, chat_message_id, name, content, created_at, updated_at
		FROM generated_files
		WHERE id = ?
	`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying generated file: %w", err)
	}

	return f, nil
}

// SaveAssistantTurn inserts an assistant message and its files in one transaction.
// Either the message and every file become visible, or nothing does.
func (s *SQLiteStore) SaveAssistantTurn(ctx context.Context, chatID int64, content string, files []FileContent) (*Message, []*GeneratedFile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	msg, err := s.insertMessage(ctx, tx, chatID, CategoryAssistant, content)
	if err != nil {
		return nil, nil, err
	}

	saved := make([]*GeneratedFile, 0, len(files))
	for _, f := range files {
		gf, err := s.insertGeneratedFile(ctx, tx, msg.ID, f.Name, f.Content)
		if err != nil {
			return nil, nil, err
		}
		saved = append(saved, gf)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing assistant turn: %w", err)
	}

	s.logger.Debug("saved assistant turn", "chat_id", chatID, "message_id", msg.ID, "files", len(saved))
	return msg, saved, nil
}
