// ABOUTME: Tests for the codechat CLI helpers
// ABOUTME: Covers config generation, logger setup and the offline chat commands

package main

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/codechat/internal/auth"
	"github.com/2389/codechat/internal/config"
	"github.com/2389/codechat/internal/store"
)

func init() {
	color.NoColor = true
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRenderConfig_Parses(t *testing.T) {
	a := initAnswers{
		HTTPAddr:      "127.0.0.1:9000",
		DatabasePath:  "/tmp/chat.db",
		ExecutorMode:  config.ExecutorModeHTTP,
		ExecutorURL:   "http://localhost:8000",
		Model:         "gpt-4",
		SessionSecret: strings.Repeat("s", 44),
		Tailscale:     true,
		TSHostname:    "chatbox",
		TSHTTPS:       true,
		LogLevel:      "debug",
		LogFormat:     "json",
	}

	cfg, err := config.Parse([]byte(renderConfig(a)), config.FormatYAML)
	require.NoError(t, err)

	assert.Empty(t, cfg.Server.HTTPAddr, "tailscale configs carry no http_addr")
	assert.Equal(t, "/tmp/chat.db", cfg.Database.Path)
	assert.Equal(t, "http://localhost:8000", cfg.Executor.URL)
	assert.True(t, cfg.Tailscale.Enabled)
	assert.True(t, cfg.Tailscale.HTTPS)
	assert.Equal(t, "chatbox", cfg.Tailscale.Hostname)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.DefaultSessionTTL, cfg.Auth.SessionTTL)
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "conf", "config.yaml")
	dbPath := filepath.Join(dir, "data", "chat.db")

	input := strings.Join([]string{
		configPath,
		"",        // http address
		dbPath,    // database
		"echo",    // executor mode
		"hunter2", // password
		"",        // tailscale
		"",        // log level
		"text",    // log format
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(input), &out))
	assert.Contains(t, out.String(), "Config written to "+configPath)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, config.ExecutorModeEcho, cfg.Executor.Mode)
	assert.GreaterOrEqual(t, len(cfg.Auth.SessionSecret), config.MinSessionSecretLen)
	assert.True(t, auth.CheckPassword(cfg.Auth.PasswordHash, "hunter2"))
	assert.Equal(t, "text", cfg.Logging.Format)

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err, "data directory should be created")
}

func TestRunInit_KeepsExistingFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("original"), 0600))

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(configPath+"\nno\n"), &out))
	assert.Contains(t, out.String(), "Aborted.")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestPrompt_DefaultOnEmptyAndEOF(t *testing.T) {
	var out bytes.Buffer
	reader := bufioReader("\n")
	assert.Equal(t, "dflt", prompt(reader, &out, "Q", "dflt"))
	assert.Equal(t, "dflt", prompt(reader, &out, "Q", "dflt"), "EOF falls back to default")

	reader = bufioReader("  value  ")
	assert.Equal(t, "value", prompt(reader, &out, "Q", "dflt"), "last line without newline is used")
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "color"}, &buf)

	logger.With("component", "server").WithGroup("req").Debug("hello", "id", 7)

	out := buf.String()
	assert.Contains(t, out, "DBG hello")
	assert.Contains(t, out, " component=server")
	assert.Contains(t, out, " req.id=7")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestColorHandler_Level(t *testing.T) {
	h := &colorHandler{level: slog.LevelWarn}
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestListChats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var out bytes.Buffer
	require.NoError(t, listChats(ctx, s, &out))
	assert.Contains(t, out.String(), "No chats yet.")

	_, err := s.CreateChat(ctx, "first")
	require.NoError(t, err)
	_, err = s.CreateChat(ctx, "second")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, listChats(ctx, s, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "second")
	assert.Contains(t, lines[2], "first")
}

func TestPrintHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chat, err := s.CreateChat(ctx, "numbers")
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, chat.ID, store.CategoryUser, "list files")
	require.NoError(t, err)
	_, _, err = s.SaveAssistantTurn(ctx, chat.ID, "done", []store.FileContent{{Name: "out.txt", Content: []byte("hi")}})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, s, chat.ID, &out))

	text := out.String()
	assert.Contains(t, text, "numbers")
	assert.Contains(t, text, "[user]")
	assert.Contains(t, text, "list files")
	assert.Contains(t, text, "[assistant]")
	assert.Contains(t, text, "out.txt (2 bytes)")
	assert.Less(t, strings.Index(text, "list files"), strings.Index(text, "done"))

	err = printHistory(ctx, s, chat.ID+100, &out)
	assert.ErrorContains(t, err, "not found")
}

func TestExportFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chat, err := s.CreateChat(ctx, "")
	require.NoError(t, err)
	_, files, err := s.SaveAssistantTurn(ctx, chat.ID, "done", []store.FileContent{{Name: "sub/out.txt", Content: []byte("hi")}})
	require.NoError(t, err)
	require.Len(t, files, 1)

	dest := filepath.Join(t.TempDir(), "copy.txt")
	path, err := exportFile(ctx, s, files[0].ID, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	t.Chdir(t.TempDir())
	path, err = exportFile(ctx, s, files[0].ID, "")
	require.NoError(t, err)
	assert.Equal(t, "out.txt", path)

	_, err = exportFile(ctx, s, files[0].ID+100, "")
	assert.ErrorContains(t, err, "not found")
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "chat")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad, "chat")
		assert.Error(t, err, "input %q", bad)
	}
}

func bufioReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}
