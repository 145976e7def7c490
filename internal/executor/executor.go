// ABOUTME: Types shared by code-execution backends: files, requests, responses and errors
// ABOUTME: An Error carries the class name, message and trace reported by the backend

package executor

import (
	"context"
	"errors"
	"fmt"
)

// File is a named binary payload sent to or produced by the executor
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Request is one prompt plus the files uploaded with it
type Request struct {
	Prompt string
	Files  []File
}

// Response is the assistant reply and any files it produced
type Response struct {
	Content string
	Files   []File
}

// Executor runs a prompt against a code-execution backend.
// Execute blocks until the backend answers or ctx is done.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Error classes produced locally rather than by the backend
const (
	ClassTransport  = "TransportError"
	ClassHTTPStatus = "HTTPStatusError"
	ClassDecode     = "DecodeError"
	ClassCanceled   = "CanceledError"
)

// Error is a failure reported by, or while talking to, the executor
type Error struct {
	Class   string
	Message string
	Trace   string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Class
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError converts any error into an *Error, keeping the class of executor errors
// and naming everything else after its Go type.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var execErr *Error
	if errors.As(err, &execErr) {
		return execErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Class: ClassCanceled, Message: err.Error(), cause: err}
	}
	return &Error{Class: fmt.Sprintf("%T", err), Message: err.Error(), cause: err}
}
