// ABOUTME: Template rendering for the chat page
// ABOUTME: Builds view models from the session and history and converts message Markdown to HTML

package webui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/codechat/internal/assets"
	"github.com/2389/codechat/internal/conversation"
	"github.com/2389/codechat/internal/store"
)

// Template data types
type chatPageData struct {
	Title       string
	Chats       []*store.Chat
	Current     *store.Chat
	Entries     []entryView
	SubmitToken string
	TurnError   *turnErrorView
	MaxUploadMB int64
}

type entryView struct {
	ID          int64
	IsAssistant bool
	HTML        template.HTML
	CreatedAt   time.Time
	Files       []fileView
}

type fileView struct {
	ID   int64
	Name string
	Size int
}

type turnErrorView struct {
	Class   string
	Message string
	Trace   string
}

var templateFuncs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.Local().Format(store.DefaultTitleLayout)
	},
	"bytesize":   humanSize,
	"stylesheet": func() string { return assets.URL("style.css") },
}

// parsePages parses the embedded page templates once
func parsePages() (*template.Template, error) {
	return template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/chat.html")
}

// humanSize formats a byte count for display
func humanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// renderMarkdown converts message content to HTML. Raw HTML in the source
// is not passed through.
func (u *UI) renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := u.markdown.Convert([]byte(content), &buf); err != nil {
		u.logger.Error("failed to convert markdown", "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(content) + "</pre>")
	}
	return template.HTML(buf.String())
}

// renderChat renders the chat page for the session's current state
func (u *UI) renderChat(w http.ResponseWriter, r *http.Request, sess *conversation.Session, status int, turnErr *conversation.TurnError) {
	data := chatPageData{
		Title:       "codechat",
		Chats:       sess.Chats(),
		Current:     sess.CurrentChat(),
		SubmitToken: uuid.New().String(),
		MaxUploadMB: u.cfg.MaxUploadBytes >> 20,
	}

	if data.Current != nil {
		data.Title = data.Current.Title
		history, err := u.conv.History(r.Context(), data.Current.ID)
		if err != nil {
			u.logger.Error("failed to load history", "error", err, "chat_id", data.Current.ID)
			http.Error(w, "Failed to load chat history", http.StatusInternalServerError)
			return
		}
		data.Entries = u.entryViews(history)
	}

	if turnErr != nil {
		data.TurnError = &turnErrorView{
			Class:   turnErr.Class,
			Message: turnErr.Message,
			Trace:   turnErr.Trace,
		}
	}

	var buf bytes.Buffer
	if err := u.pages.ExecuteTemplate(&buf, "base.html", data); err != nil {
		u.logger.Error("failed to render chat page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) entryViews(history []*conversation.Entry) []entryView {
	views := make([]entryView, 0, len(history))
	for _, e := range history {
		v := entryView{
			ID:          e.Message.ID,
			IsAssistant: e.Message.Category == store.CategoryAssistant,
			HTML:        u.renderMarkdown(e.Message.Content),
			CreatedAt:   e.Message.CreatedAt,
		}
		for _, f := range e.Files {
			v.Files = append(v.Files, fileView{ID: f.ID, Name: f.Name, Size: len(f.Content)})
		}
		views = append(views, v)
	}
	return views
}
