package openaicompat_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomtoy/arcana/internal/adapters/llm/openaicompat"
	"github.com/randomtoy/arcana/internal/domain"
	"github.com/randomtoy/arcana/internal/ports"
)

func testRequest() ports.CompletionRequest {
	return ports.CompletionRequest{Model: "deepseek-chat", Prompt: "You are a tarot reader."}
}

func newClient(srv *httptest.Server, idle time.Duration) *openaicompat.Client {
	return openaicompat.NewClient(srv.Client(), "test-key", srv.URL, idle, slog.New(slog.DiscardHandler))
}

func delta(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": text}}},
	})
	return string(b)
}

// sseHandler writes each event as a data line and flushes it.
func sseHandler(events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func drain(t *testing.T, stream ports.FragmentStream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		text, err := stream.Next(context.Background())
		if err != nil {
			return out, err
		}
		out = append(out, text)
	}
}

func TestClient_Stream_Success(t *testing.T) {
	requests := make(chan map[string]any, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var gotReq map[string]any
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		requests <- gotReq

		sseHandler(
			`{"choices":[{"delta":{"role":"assistant"}}]}`,
			delta("Hello"),
			delta(" "),
			delta("World"),
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			"[DONE]",
		)(w, r)
	}))
	defer srv.Close()

	stream, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"Hello", " ", "World"}, got)

	gotReq := <-requests
	assert.Equal(t, "deepseek-chat", gotReq["model"])
	assert.Equal(t, true, gotReq["stream"])
	messages, _ := gotReq["messages"].([]any)
	require.Len(t, messages, 1)
	msg, _ := messages[0].(map[string]any)
	assert.Equal(t, "system", msg["role"])
	assert.Equal(t, "You are a tarot reader.", msg["content"])

	// Further calls keep reporting the end of the stream.
	_, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_Stream_ContentEqualToMarker(t *testing.T) {
	srv := httptest.NewServer(sseHandler(delta("[DONE]"), delta("!"), "[DONE]"))
	defer srv.Close()

	stream, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"[DONE]", "!"}, got)
}

func TestClient_Stream_SkipsMalformedAndComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": OPENROUTER PROCESSING\n\n")
		io.WriteString(w, "data: "+delta("a")+"\r\n\r\n")
		io.WriteString(w, "data: {not json\n\n")
		io.WriteString(w, "event: message\nid: 7\ndata:"+delta("b")+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	stream, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestClient_Stream_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestClient_Stream_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := newClient(srv, time.Second)
	srv.Close()

	_, err := client.Stream(context.Background(), testRequest())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_Stream_EndsWithoutMarker(t *testing.T) {
	srv := httptest.NewServer(sseHandler(delta("partial")))
	defer srv.Close()

	stream, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	assert.ErrorIs(t, err, domain.ErrStreamInterrupted)
	assert.Equal(t, []string{"partial"}, got)
}

func TestClient_Stream_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(sseHandler(delta("x"), `{"error":{"message":"overloaded"}}`))
	defer srv.Close()

	stream, err := newClient(srv, time.Second).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	require.ErrorIs(t, err, domain.ErrStreamInterrupted)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, []string{"x"}, got)
}

func TestClient_Stream_IdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseHandler(delta("first"))(w, r)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	stream, err := newClient(srv, 50*time.Millisecond).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	text, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	start := time.Now()
	_, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrStreamInterrupted)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_Stream_KeepAliveResetsIdleTimer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for range 6 {
			io.WriteString(w, ": PROCESSING\n\n")
			flusher.Flush()
			time.Sleep(40 * time.Millisecond)
		}
		fmt.Fprintf(w, "data: %s\n\ndata: [DONE]\n\n", delta("late"))
	}))
	defer srv.Close()

	stream, err := newClient(srv, 150*time.Millisecond).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"late"}, got)
}

func TestClient_Stream_LineTooLong(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", delta("first"))
		io.WriteString(w, "data: ")
		chunk := strings.Repeat("x", 64*1024)
		for range 32 {
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	stream, err := newClient(srv, 0).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	got, err := drain(t, stream)
	assert.ErrorIs(t, err, domain.ErrStreamInterrupted)
	assert.ErrorContains(t, err, "line exceeds")
	assert.Equal(t, []string{"first"}, got)
}

func TestClient_Stream_CloseReleasesUpstream(t *testing.T) {
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseHandler(delta("first"))(w, r)
		select {
		case <-r.Context().Done():
			close(released)
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	stream, err := newClient(srv, 0).Stream(context.Background(), testRequest())
	require.NoError(t, err)

	_, err = stream.Next(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was not released after Close")
	}
}

func TestClient_Stream_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseHandler(delta("first"))(w, r)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	stream, err := newClient(srv, 0).Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = stream.Next(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestClient_TrimsBaseURL(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		sseHandler("[DONE]")(w, r)
	}))
	defer srv.Close()

	client := openaicompat.NewClient(srv.Client(), "k", srv.URL+"/v1/", 0, slog.New(slog.DiscardHandler))
	stream, err := client.Stream(context.Background(), testRequest())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "/v1/chat/completions", <-paths)
}
