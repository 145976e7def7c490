// ABOUTME: Turn request/result types and the TurnError returned when a turn fails
// ABOUTME: TurnError tells storage failures apart from executor failures

package conversation

import (
	"errors"
	"fmt"

	"github.com/2389/codechat/internal/executor"
	"github.com/2389/codechat/internal/store"
)

// ErrNoChatSelected is returned when an operation needs a current chat and there is none
var ErrNoChatSelected = errors.New("no chat selected")

// ErrorKind says which side of a turn failed
type ErrorKind string

const (
	// KindStorage means reading or writing the store failed
	KindStorage ErrorKind = "storage"
	// KindGateway means the executor failed or could not be reached
	KindGateway ErrorKind = "gateway"
)

// classStorage is the class reported for storage failures
const classStorage = "StorageError"

// TurnRequest is one user submission: prompt text plus uploaded files
type TurnRequest struct {
	Prompt string
	Files  []executor.File
}

// TurnResult is what a successful turn persisted
type TurnResult struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
	Files            []*store.GeneratedFile
}

// TurnError describes a failed turn. UserMessage is set when the user's
// message was persisted before the failure; no assistant message or file
// exists for the turn in that case.
type TurnError struct {
	Kind        ErrorKind
	Class       string
	Message     string
	Trace       string
	UserMessage *store.Message
	Err         error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s error: %s: %s", e.Kind, e.Class, e.Message)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

func storageError(err error, userMsg *store.Message) *TurnError {
	return &TurnError{
		Kind:        KindStorage,
		Class:       classStorage,
		Message:     err.Error(),
		UserMessage: userMsg,
		Err:         err,
	}
}

func gatewayError(err error, userMsg *store.Message) *TurnError {
	execErr := executor.AsError(err)
	return &TurnError{
		Kind:        KindGateway,
		Class:       execErr.Class,
		Message:     execErr.Message,
		Trace:       execErr.Trace,
		UserMessage: userMsg,
		Err:         err,
	}
}
