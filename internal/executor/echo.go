// ABOUTME: Local stand-in executor that echoes prompts and uploaded files back
// ABOUTME: Used for development and end-to-end tests without a code-interpreter service

package executor

import (
	"context"
	"fmt"
	"strings"
)

// CrashPrompt makes EchoExecutor fail, to exercise the error path end to end
const CrashPrompt = "crash"

// EchoExecutor answers every prompt locally
type EchoExecutor struct{}

// Execute echoes the prompt as Markdown and returns uploaded files unchanged
func (EchoExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, AsError(err)
	}
	if strings.TrimSpace(req.Prompt) == CrashPrompt {
		return nil, &Error{
			Class:   "RuntimeError",
			Message: "echo executor was asked to crash",
			Trace:   "Traceback (most recent call last):\n  File \"<echo>\", line 1, in <module>\nRuntimeError: echo executor was asked to crash",
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Echo:** %s\n", req.Prompt)
	if len(req.Files) > 0 {
		b.WriteString("\nReceived files:\n\n")
		for _, f := range req.Files {
			fmt.Fprintf(&b, "- `%s` (%d bytes)\n", f.Name, len(f.Content))
		}
	}

	files := make([]File, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, File{Name: f.Name, Content: append([]byte{}, f.Content...)})
	}
	return &Response{Content: b.String(), Files: files}, nil
}
