// ABOUTME: Conversation Service is the turn protocol between the web UI, the store and the executor
// ABOUTME: The user message is recorded before the executor runs; the store is the source of truth

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/codechat/internal/executor"
	"github.com/2389/codechat/internal/store"
)

// persistTimeout bounds the writes that follow a finished executor call
const persistTimeout = 5 * time.Second

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	CreateChat(ctx context.Context, title string) (*store.Chat, error)
	RenameChat(ctx context.Context, id int64, title string) error
	ListChats(ctx context.Context) ([]*store.Chat, error)
	GetChat(ctx context.Context, id int64) (*store.Chat, error)

	CreateMessage(ctx context.Context, chatID int64, category store.Category, content string) (*store.Message, error)
	ListMessages(ctx context.Context, chatID int64) ([]*store.Message, error)

	ListGeneratedFiles(ctx context.Context, messageID int64) ([]*store.GeneratedFile, error)
	GetGeneratedFile(ctx context.Context, id int64) (*store.GeneratedFile, error)

	SaveAssistantTurn(ctx context.Context, chatID int64, content string, files []store.FileContent) (*store.Message, []*store.GeneratedFile, error)
}

// Executor defines what the service needs from the execution layer
type Executor interface {
	Execute(ctx context.Context, req *executor.Request) (*executor.Response, error)
}

// Entry is one message in a chat's history with the files it produced
type Entry struct {
	Message *store.Message
	Files   []*store.GeneratedFile
}

// Service runs turns and keeps sessions in sync with the store.
type Service struct {
	store  ConversationStore
	exec   Executor
	logger *slog.Logger

	// turnMu serializes turns so no store write interleaves with one in flight
	turnMu sync.Mutex
}

// New creates a new conversation Service
func New(store ConversationStore, exec Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		exec:   exec,
		logger: logger.With("component", "conversation"),
	}
}

// NewChat creates a chat titled with the current time and selects it
func (s *Service) NewChat(ctx context.Context, sess *Session) (*store.Chat, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	chat, err := s.store.CreateChat(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	s.logger.Info("chat created", "chat_id", chat.ID, "title", chat.Title, "session", sess.ID())

	if err := s.load(ctx, sess, chat.ID); err != nil {
		return nil, err
	}
	return chat, nil
}

// SelectChat makes id the session's current chat. Returns store.ErrNotFound
// if no such chat exists; the session is left unchanged in that case.
func (s *Service) SelectChat(ctx context.Context, sess *Session, id int64) error {
	if _, err := s.store.GetChat(ctx, id); err != nil {
		return fmt.Errorf("selecting chat %d: %w", id, err)
	}
	return s.load(ctx, sess, id)
}

// RenameChat changes the current chat's title
func (s *Service) RenameChat(ctx context.Context, sess *Session, title string) error {
	id, ok := sess.CurrentChatID()
	if !ok {
		return ErrNoChatSelected
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if err := s.store.RenameChat(ctx, id, title); err != nil {
		return fmt.Errorf("renaming chat %d: %w", id, err)
	}
	s.logger.Info("chat renamed", "chat_id", id, "title", title)
	return s.load(ctx, sess, id)
}

// Reload re-queries the chat list and the current chat's messages
func (s *Service) Reload(ctx context.Context, sess *Session) error {
	id, _ := sess.CurrentChatID()
	return s.load(ctx, sess, id)
}

// load replaces the session state with fresh rows. A chatID of 0, or one
// that no longer exists, leaves the session without a current chat.
func (s *Service) load(ctx context.Context, sess *Session, chatID int64) error {
	chats, err := s.store.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("listing chats: %w", err)
	}

	if chatID == 0 {
		sess.replace(nil, chats, nil)
		return nil
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		sess.replace(nil, chats, nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting chat %d: %w", chatID, err)
	}

	messages, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("listing messages for chat %d: %w", chatID, err)
	}

	sess.replace(chat, chats, messages)
	return nil
}

// History returns a chat's messages in order, each with its generated files
func (s *Service) History(ctx context.Context, chatID int64) ([]*Entry, error) {
	messages, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for chat %d: %w", chatID, err)
	}

	entries := make([]*Entry, 0, len(messages))
	for _, msg := range messages {
		entry := &Entry{Message: msg}
		if msg.Category == store.CategoryAssistant {
			files, err := s.store.ListGeneratedFiles(ctx, msg.ID)
			if err != nil {
				return nil, fmt.Errorf("listing files for message %d: %w", msg.ID, err)
			}
			entry.Files = files
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// File returns one generated file for download
func (s *Service) File(ctx context.Context, id int64) (*store.GeneratedFile, error) {
	f, err := s.store.GetGeneratedFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting file %d: %w", id, err)
	}
	return f, nil
}

// Submit runs one turn against the session's current chat.
//
// The user message is persisted before the executor is called. If the
// executor fails, nothing else is written and a *TurnError is returned
// carrying the persisted user message. On success the assistant message
// and its files are committed together. The session is reloaded whatever
// the outcome.
func (s *Service) Submit(ctx context.Context, sess *Session, req *TurnRequest) (*TurnResult, error) {
	chatID, ok := sess.CurrentChatID()
	if !ok {
		return nil, ErrNoChatSelected
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	logger := s.logger.With("chat_id", chatID, "session", sess.ID())

	// Record the user message first so it survives whatever happens next
	userMsg, err := s.store.CreateMessage(ctx, chatID, store.CategoryUser, req.Prompt)
	if err != nil {
		logger.Error("failed to save user message", "error", err)
		s.reloadAfterTurn(ctx, sess, chatID)
		return nil, storageError(err, nil)
	}
	logger.Debug("user message saved", "message_id", userMsg.ID, "files", len(req.Files))

	start := time.Now()
	resp, err := s.exec.Execute(ctx, &executor.Request{Prompt: req.Prompt, Files: req.Files})
	if err != nil {
		turnErr := gatewayError(err, userMsg)
		logger.Warn("executor failed",
			"message_id", userMsg.ID,
			"class", turnErr.Class,
			"error", turnErr.Message,
			"duration", time.Since(start))
		s.reloadAfterTurn(ctx, sess, chatID)
		return nil, turnErr
	}
	logger.Debug("executor answered",
		"duration", time.Since(start),
		"content_len", len(resp.Content),
		"files", len(resp.Files))

	files := make([]store.FileContent, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, store.FileContent{Name: f.Name, Content: f.Content})
	}

	// The executor already did the work; persist even if the caller went away
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	assistantMsg, saved, err := s.store.SaveAssistantTurn(saveCtx, chatID, resp.Content, files)
	if err != nil {
		logger.Error("failed to save assistant turn", "error", err, "message_id", userMsg.ID)
		s.reloadAfterTurn(saveCtx, sess, chatID)
		return nil, storageError(err, userMsg)
	}
	logger.Info("turn completed",
		"user_message_id", userMsg.ID,
		"assistant_message_id", assistantMsg.ID,
		"files", len(saved),
		"duration", time.Since(start))

	s.reloadAfterTurn(saveCtx, sess, chatID)
	return &TurnResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Files:            saved,
	}, nil
}

// reloadAfterTurn refreshes the session, logging rather than returning
// failures so the turn outcome is what the caller sees.
func (s *Service) reloadAfterTurn(ctx context.Context, sess *Session, chatID int64) {
	if err := s.load(ctx, sess, chatID); err != nil {
		s.logger.Error("failed to reload session", "error", err, "chat_id", chatID, "session", sess.ID())
	}
}
