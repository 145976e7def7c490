// ABOUTME: Session ID propagation through request contexts
// ABOUTME: Provides WithSessionID/SessionIDFromContext for handlers behind the session middleware

package auth

import (
	"context"
)

// sessionContextKey is the key type for storing the session ID in context.Context.
type sessionContextKey struct{}

// WithSessionID returns a new context carrying the browser session ID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}

// SessionIDFromContext returns the session ID, or "" if the request did not
// pass through the session middleware.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey{}).(string)
	return id
}
