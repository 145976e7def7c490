// Package conversation runs chat turns and keeps per-user sessions current.
//
// # Overview
//
// The conversation package sits between the web handlers, the store and the
// executor. Handlers never write to the store directly; every mutation goes
// through the Service so the turn protocol holds.
//
// # Service
//
//	svc := conversation.New(store, exec, logger)
//
// Key operations:
//
//   - NewChat(ctx, sess): Create a chat titled with the current time and select it
//   - SelectChat(ctx, sess, id): Make a chat current
//   - RenameChat(ctx, sess, title): Rename the current chat
//   - Reload(ctx, sess): Re-query the chat list and current messages
//   - History(ctx, chatID): Messages with their generated files
//   - File(ctx, id): One generated file for download
//   - Submit(ctx, sess, req): Run one turn
//
// # Turn Protocol
//
// When Submit is called:
//
//  1. Save the user message
//  2. Call the executor with the prompt and uploaded files
//  3. On success, save the assistant message and its files in one transaction
//  4. On failure, save nothing more and return a *TurnError
//
// The session is reloaded from the store after every outcome. Turns are
// serialized by a mutex in the Service.
//
// # Sessions
//
// A Session is the state one browser sees: the selected chat, the chat list
// and the selected chat's messages. It is a cache; the store stays the
// source of truth.
package conversation
