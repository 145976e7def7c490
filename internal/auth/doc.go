// Package auth identifies browser sessions and gates access to the web UI.
//
// # Sessions
//
// Every browser gets a session ID (a UUID) carried in the codechat_session
// cookie as the "sub" claim of an HS256 JWT signed with auth.session_secret.
// SessionMiddleware verifies the cookie, starts a new session when it is
// missing or invalid, and stores the ID in the request context:
//
//	id := auth.SessionIDFromContext(r.Context())
//
// Sessions are not persisted. Restarting the server with the same secret
// keeps cookies valid, but the per-session state they point at is rebuilt
// from the store.
//
// # Password Gate
//
// When auth.password_hash is set, RequirePassword demands HTTP basic auth
// and checks the password against the bcrypt hash. The username is ignored.
// Generate a hash with:
//
//	codechat init
//
// # Token Format
//
//	{"sub": "<session uuid>", "iat": 1700000000, "exp": 1700604800}
package auth
