// ABOUTME: Web UI package for codechat: server-rendered chat pages over the conversation service
// ABOUTME: Wires routes, browser sessions, the password gate and submit deduplication

package webui

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/codechat/internal/assets"
	"github.com/2389/codechat/internal/auth"
	"github.com/2389/codechat/internal/conversation"
	"github.com/2389/codechat/internal/dedupe"
)

// maxSubmitTokens bounds the dedupe set of form submit tokens
const maxSubmitTokens = 100_000

// multipartMemory is how much of an upload is held in memory before spilling to disk
const multipartMemory = 8 << 20

// Config holds web UI configuration
type Config struct {
	// SessionSecret signs browser session cookies
	SessionSecret []byte
	// SessionTTL is how long a session cookie stays valid
	SessionTTL time.Duration
	// PasswordHash enables HTTP basic auth when non-empty (bcrypt)
	PasswordHash string
	// MaxUploadBytes bounds the size of a turn submission
	MaxUploadBytes int64
	// DedupeTTL is how long a submit token is remembered
	DedupeTTL time.Duration
}

// UI serves the chat pages
type UI struct {
	conv     *conversation.Service
	cfg      Config
	tokens   *auth.SessionTokens
	submits  *dedupe.Tokens
	sessions *sessionRegistry
	markdown goldmark.Markdown
	pages    *template.Template
	logger   *slog.Logger
}

// New creates the web UI
func New(conv *conversation.Service, cfg Config, logger *slog.Logger) (*UI, error) {
	if conv == nil {
		return nil, errors.New("conversation service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", cfg.MaxUploadBytes)
	}

	tokens, err := auth.NewSessionTokens(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating session tokens: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &UI{
		conv:     conv,
		cfg:      cfg,
		tokens:   tokens,
		submits:  dedupe.New(cfg.DedupeTTL, maxSubmitTokens),
		sessions: newSessionRegistry(cfg.SessionTTL),
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		pages:    pages,
		logger:   logger.With("component", "webui"),
	}, nil
}

// Close releases background resources
func (u *UI) Close() {
	u.submits.Close()
}

// Handler returns the UI routes behind the password gate and session middleware
func (u *UI) Handler() http.Handler {
	mux := http.NewServeMux()
	u.RegisterRoutes(mux)

	var h http.Handler = mux
	h = auth.SessionMiddleware(u.tokens, u.cfg.SessionTTL, u.logger)(h)
	h = auth.RequirePassword(u.cfg.PasswordHash)(h)
	return h
}

// RegisterRoutes registers the chat routes on the given mux without any middleware
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", u.handleIndex)
	mux.HandleFunc("GET /chats/{id}", u.handleChat)
	mux.HandleFunc("POST /chats", u.handleNewChat)
	mux.HandleFunc("POST /chats/{id}/title", u.handleRename)
	mux.HandleFunc("POST /chats/{id}/turns", u.handleTurn)
	mux.HandleFunc("GET /files/{id}", u.handleFile)
	mux.Handle("GET /static/", http.StripPrefix("/static/", assets.FileServer()))
}
