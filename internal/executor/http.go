// ABOUTME: HTTP client for a remote code-interpreter service
// ABOUTME: Sends prompt and files as JSON and maps failures onto *Error

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// maxErrorBody caps how much of a non-2xx body ends up in an error message
const maxErrorBody = 4096

// HTTPConfig configures an HTTPExecutor
type HTTPConfig struct {
	// BaseURL of the service; requests go to BaseURL + "/v1/generate"
	BaseURL string
	// Model forwarded to the service (e.g. "gpt-4")
	Model string
	// APIKey is sent as a bearer token when set
	APIKey string
	// DetailedError asks the service to include tracebacks in failures
	DetailedError bool
	// Client is used for requests; defaults to a client without a timeout
	Client *http.Client
}

// HTTPExecutor calls a code-interpreter service over HTTP
type HTTPExecutor struct {
	endpoint      string
	model         string
	apiKey        string
	detailedError bool
	client        *http.Client
	logger        *slog.Logger
}

type generateRequest struct {
	Prompt        string `json:"prompt"`
	Model         string `json:"model,omitempty"`
	DetailedError bool   `json:"detailed_error"`
	Files         []File `json:"files"`
}

type generateError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

type generateResponse struct {
	Content string         `json:"content"`
	Files   []File         `json:"files"`
	Error   *generateError `json:"error,omitempty"`
}

// NewHTTPExecutor creates an executor for the service at cfg.BaseURL
func NewHTTPExecutor(cfg HTTPConfig, logger *slog.Logger) (*HTTPExecutor, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("executor base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		// No timeout: code runs can take arbitrarily long, callers cancel via ctx
		client = &http.Client{}
	}
	return &HTTPExecutor{
		endpoint:      strings.TrimRight(cfg.BaseURL, "/") + "/v1/generate",
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		detailedError: cfg.DetailedError,
		client:        client,
		logger:        logger.With("component", "executor"),
	}, nil
}

// Execute sends the prompt and files and waits for the service's answer
func (e *HTTPExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	files := req.Files
	if files == nil {
		files = []File{}
	}
	body, err := json.Marshal(generateRequest{
		Prompt:        req.Prompt,
		Model:         e.model,
		DetailedError: e.detailedError,
		Files:         files,
	})
	if err != nil {
		return nil, &Error{Class: ClassDecode, Message: fmt.Sprintf("encoding request: %v", err), cause: err}
	}

	requestID := uuid.New().String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Class: ClassTransport, Message: fmt.Sprintf("building request: %v", err), cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	e.logger.Debug("sending prompt", "request_id", requestID, "files", len(req.Files), "prompt_len", len(req.Prompt))

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Class: ClassCanceled, Message: ctx.Err().Error(), cause: err}
		}
		return nil, &Error{Class: ClassTransport, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		// The service may still describe the failure in the usual envelope
		var decoded generateResponse
		if json.Unmarshal(snippet, &decoded) == nil && decoded.Error != nil {
			return nil, decoded.Error.toError()
		}
		return nil, &Error{
			Class:   ClassHTTPStatus,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Class: ClassDecode, Message: fmt.Sprintf("decoding response: %v", err), cause: err}
	}
	if decoded.Error != nil {
		return nil, decoded.Error.toError()
	}

	e.logger.Debug("received response", "request_id", requestID, "files", len(decoded.Files))
	return &Response{Content: decoded.Content, Files: decoded.Files}, nil
}

func (g *generateError) toError() *Error {
	class := g.Type
	if class == "" {
		class = "ExecutionError"
	}
	return &Error{Class: class, Message: g.Message, Trace: g.Traceback}
}
