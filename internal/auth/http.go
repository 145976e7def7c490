// ABOUTME: HTTP middleware for browser sessions and the optional password gate
// ABOUTME: Sessions ride in a signed JWT cookie; the password gate uses HTTP basic auth

package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "codechat_session"

// basicAuthRealm is shown by browsers in the password prompt
const basicAuthRealm = "codechat"

// SessionMiddleware attaches a session ID to every request. A valid cookie
// keeps its session; a missing, expired or tampered cookie starts a new one
// and sets a fresh cookie.
func SessionMiddleware(tokens *SessionTokens, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sessionID, err := tokens.Verify(cookie.Value)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
					return
				}
				logger.Debug("discarding session cookie", "error", err)
			}

			sessionID := uuid.New().String()
			token, err := tokens.Issue(sessionID, ttl)
			if err != nil {
				logger.Error("failed to issue session token", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(ttl),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			logger.Debug("session started", "session", sessionID)

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// RequirePassword gates every request behind HTTP basic auth checked against
// a bcrypt hash. The username is ignored. An empty hash disables the gate.
func RequirePassword(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if passwordHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, password, ok := r.BasicAuth()
			if !ok || !CheckPassword(passwordHash, password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+basicAuthRealm+`", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
