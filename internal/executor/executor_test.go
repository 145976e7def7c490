// ABOUTME: Tests for the HTTP and echo executors
// ABOUTME: Uses httptest to check the wire contract and error mapping

package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, handler http.HandlerFunc) *HTTPExecutor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e, err := NewHTTPExecutor(HTTPConfig{
		BaseURL:       srv.URL + "/",
		Model:         "gpt-4",
		APIKey:        "sk-test",
		DetailedError: true,
	}, nil)
	require.NoError(t, err)
	return e
}

func TestNewHTTPExecutor_RequiresURL(t *testing.T) {
	_, err := NewHTTPExecutor(HTTPConfig{}, nil)
	assert.Error(t, err)
}

func TestHTTPExecutor_Success(t *testing.T) {
	var got generateRequest
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/generate", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateResponse{
			Content: "done",
			Files:   []File{{Name: "out.txt", Content: []byte("hi")}},
		})
	})

	resp, err := e.Execute(context.Background(), &Request{
		Prompt: "list files",
		Files:  []File{{Name: "in.csv", Content: []byte{0, 1, 2, 255}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "list files", got.Prompt)
	assert.Equal(t, "gpt-4", got.Model)
	assert.True(t, got.DetailedError)
	require.Len(t, got.Files, 1)
	assert.Equal(t, []byte{0, 1, 2, 255}, got.Files[0].Content)

	assert.Equal(t, "done", resp.Content)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "out.txt", resp.Files[0].Name)
	assert.Equal(t, []byte("hi"), resp.Files[0].Content)
}

func TestHTTPExecutor_ServiceReportsError(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Error: &generateError{Type: "ZeroDivisionError", Message: "division by zero", Traceback: "line 1"},
		})
	})

	_, err := e.Execute(context.Background(), &Request{Prompt: "1/0"})
	require.Error(t, err)

	var execErr *Error
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "ZeroDivisionError", execErr.Class)
	assert.Equal(t, "division by zero", execErr.Message)
	assert.Equal(t, "line 1", execErr.Trace)
	assert.Contains(t, err.Error(), "ZeroDivisionError")
}

func TestHTTPExecutor_NonOKStatus(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := e.Execute(context.Background(), &Request{Prompt: "hi"})
	execErr := AsError(err)
	require.NotNil(t, execErr)
	assert.Equal(t, ClassHTTPStatus, execErr.Class)
	assert.Contains(t, execErr.Message, "502")
	assert.Contains(t, execErr.Message, "upstream exploded")
}

func TestHTTPExecutor_NonOKStatusWithEnvelope(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(generateResponse{
			Error: &generateError{Type: "TimeoutError", Message: "sandbox timed out"},
		})
	})

	_, err := e.Execute(context.Background(), &Request{Prompt: "sleep"})
	assert.Equal(t, "TimeoutError", AsError(err).Class)
}

func TestHTTPExecutor_MalformedBody(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := e.Execute(context.Background(), &Request{Prompt: "hi"})
	assert.Equal(t, ClassDecode, AsError(err).Class)
}

func TestHTTPExecutor_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e, err := NewHTTPExecutor(HTTPConfig{BaseURL: url}, nil)
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), &Request{Prompt: "hi"})
	assert.Equal(t, ClassTransport, AsError(err).Class)
}

func TestHTTPExecutor_Canceled(t *testing.T) {
	e := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, &Request{Prompt: "hi"})
	assert.Equal(t, ClassCanceled, AsError(err).Class)
}

func TestEchoExecutor(t *testing.T) {
	resp, err := EchoExecutor{}.Execute(context.Background(), &Request{
		Prompt: "list files",
		Files:  []File{{Name: "a.txt", Content: []byte("abc")}},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "list files")
	assert.Contains(t, resp.Content, "a.txt")
	require.Len(t, resp.Files, 1)
	assert.Equal(t, []byte("abc"), resp.Files[0].Content)
}

func TestEchoExecutor_Crash(t *testing.T) {
	_, err := EchoExecutor{}.Execute(context.Background(), &Request{Prompt: CrashPrompt})
	execErr := AsError(err)
	require.NotNil(t, execErr)
	assert.Equal(t, "RuntimeError", execErr.Class)
	assert.NotEmpty(t, execErr.Trace)
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	plain := AsError(errors.New("boom"))
	assert.Equal(t, "*errors.errorString", plain.Class)
	assert.Equal(t, "boom", plain.Message)

	canceled := AsError(context.Canceled)
	assert.Equal(t, ClassCanceled, canceled.Class)
	assert.ErrorIs(t, canceled, context.Canceled)
}
