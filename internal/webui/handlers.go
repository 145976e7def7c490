// ABOUTME: HTTP handlers for chat selection, creation, renaming, turns and file downloads
// ABOUTME: Mutations redirect back to the chat page; failed turns render their error inline

package webui

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/2389/codechat/internal/auth"
	"github.com/2389/codechat/internal/conversation"
	"github.com/2389/codechat/internal/executor"
	"github.com/2389/codechat/internal/store"
)

// session returns the conversation session for the request, loading it
// from the store the first time it is seen
func (u *UI) session(r *http.Request) (*conversation.Session, error) {
	sess, created := u.sessions.get(auth.SessionIDFromContext(r.Context()))
	if created {
		if err := u.conv.Reload(r.Context(), sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func chatURL(id int64) string {
	return fmt.Sprintf("/chats/%d", id)
}

// handleIndex renders the chat list and the session's current chat
func (u *UI) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := u.session(r)
	if err != nil {
		u.serverError(w, "failed to load session", err)
		return
	}
	if err := u.conv.Reload(r.Context(), sess); err != nil {
		u.serverError(w, "failed to reload session", err)
		return
	}
	u.renderChat(w, r, sess, http.StatusOK, nil)
}

// handleChat selects a chat and renders its history
func (u *UI) handleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	sess, err := u.session(r)
	if err != nil {
		u.serverError(w, "failed to load session", err)
		return
	}

	if err := u.conv.SelectChat(r.Context(), sess, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		u.serverError(w, "failed to select chat", err)
		return
	}
	u.renderChat(w, r, sess, http.StatusOK, nil)
}

// handleNewChat creates a chat and redirects to it
func (u *UI) handleNewChat(w http.ResponseWriter, r *http.Request) {
	sess, err := u.session(r)
	if err != nil {
		u.serverError(w, "failed to load session", err)
		return
	}

	chat, err := u.conv.NewChat(r.Context(), sess)
	if err != nil {
		u.serverError(w, "failed to create chat", err)
		return
	}
	http.Redirect(w, r, chatURL(chat.ID), http.StatusSeeOther)
}

// handleRename sets a chat's title from the "title" form field
func (u *UI) handleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	sess, err := u.session(r)
	if err != nil {
		u.serverError(w, "failed to load session", err)
		return
	}

	if err := u.conv.SelectChat(r.Context(), sess, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		u.serverError(w, "failed to select chat", err)
		return
	}
	if err := u.conv.RenameChat(r.Context(), sess, r.PostFormValue("title")); err != nil {
		u.serverError(w, "failed to rename chat", err)
		return
	}
	http.Redirect(w, r, chatURL(id), http.StatusSeeOther)
}

// handleTurn runs one turn from a multipart form with "prompt", repeated
// "files" and a "submit_token" used to drop resubmissions
func (u *UI) handleTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, u.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			http.Error(w, fmt.Sprintf("Upload exceeds %d MB", u.cfg.MaxUploadBytes>>20), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	token := r.FormValue("submit_token")
	if token != "" && u.submits.Seen(token) {
		u.logger.Info("dropping duplicate submission", "chat_id", id)
		http.Redirect(w, r, chatURL(id), http.StatusSeeOther)
		return
	}

	prompt := r.FormValue("prompt")
	files, err := readUploads(r.MultipartForm.File["files"])
	if err != nil {
		u.submits.Forget(token)
		http.Error(w, "Failed to read uploaded files", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(prompt) == "" && len(files) == 0 {
		u.submits.Forget(token)
		http.Redirect(w, r, chatURL(id), http.StatusSeeOther)
		return
	}

	sess, err := u.session(r)
	if err != nil {
		u.submits.Forget(token)
		u.serverError(w, "failed to load session", err)
		return
	}
	if err := u.conv.SelectChat(r.Context(), sess, id); err != nil {
		u.submits.Forget(token)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		u.serverError(w, "failed to select chat", err)
		return
	}

	_, err = u.conv.Submit(r.Context(), sess, &conversation.TurnRequest{Prompt: prompt, Files: files})
	if err != nil {
		var turnErr *conversation.TurnError
		if !errors.As(err, &turnErr) {
			u.serverError(w, "failed to submit turn", err)
			return
		}
		status := http.StatusOK
		if turnErr.Kind == conversation.KindStorage {
			status = http.StatusInternalServerError
		}
		u.renderChat(w, r, sess, status, turnErr)
		return
	}
	http.Redirect(w, r, chatURL(id), http.StatusSeeOther)
}

// isTooLarge reports whether err came from the request body size limit
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// readUploads reads every uploaded file into memory, keeping only the base name
func readUploads(headers []*multipart.FileHeader) ([]executor.File, error) {
	files := make([]executor.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading upload %q: %w", fh.Filename, err)
		}
		files = append(files, executor.File{Name: baseName(fh.Filename), Content: content})
	}
	return files, nil
}

// baseName strips directories from a client or executor supplied file name
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "file"
	}
	return name
}

// handleFile serves a generated file as a download
func (u *UI) handleFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return
	}

	f, err := u.conv.File(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		u.serverError(w, "failed to load file", err)
		return
	}

	name := baseName(f.Name)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Content)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(f.Content)
}

func (u *UI) serverError(w http.ResponseWriter, msg string, err error) {
	u.logger.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
