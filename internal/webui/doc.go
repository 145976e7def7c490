// Package webui serves the codechat browser interface.
//
// # Overview
//
// Pages are rendered on the server from embedded html/template files. There
// is no JavaScript; every action is a plain form post followed by a redirect
// back to the chat page.
//
// # Routes
//
//	GET  /                    chat list and the session's current chat
//	GET  /chats/{id}          select a chat and show its history
//	POST /chats               create a chat titled with the current time
//	POST /chats/{id}/title    rename a chat ("title" form field)
//	POST /chats/{id}/turns    run a turn (multipart: prompt, files, submit_token)
//	GET  /files/{id}          download a generated file
//
// Message content is Markdown rendered with goldmark (GFM). Raw HTML in
// messages is dropped.
//
// # Sessions
//
// Each browser gets a session from the auth middleware. The UI keeps one
// conversation.Session per browser session in memory and drops it after
// auth.session_ttl of inactivity.
//
// # Resubmission
//
// Every rendered turn form carries a fresh submit_token. A token seen again
// within webui.dedupe_ttl is ignored, so refreshing after a POST does not
// run the turn twice.
package webui
