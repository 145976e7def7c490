// Package executor talks to the code-execution assistant that answers prompts.
//
// An Executor takes a prompt plus uploaded files and returns the assistant's
// text and any files it produced. Two implementations exist:
//
//   - HTTPExecutor: POSTs JSON to <base_url>/v1/generate on a code-interpreter
//     service. File contents travel base64-encoded.
//   - EchoExecutor: answers locally; the prompt "crash" fails on purpose.
//
// # Wire Contract
//
// Request:
//
//	{"prompt": "...", "model": "gpt-4", "detailed_error": true,
//	 "files": [{"name": "in.csv", "content": "<base64>"}]}
//
// Response:
//
//	{"content": "...", "files": [{"name": "out.png", "content": "<base64>"}]}
//	{"error": {"type": "ValueError", "message": "...", "traceback": "..."}}
//
// # Errors
//
// Every failure is an *Error with a class name, message and optional trace.
// Service-reported failures keep the service's class; local failures use
// TransportError, HTTPStatusError, DecodeError or CanceledError.
//
// No request timeout is applied. A run ends when the service answers or the
// caller's context is canceled.
package executor
