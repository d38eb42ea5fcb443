package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/randomtoy/arcana/internal/domain"
	"github.com/randomtoy/arcana/internal/ports"
)

// Client implements ports.Completer against an OpenAI-compatible
// chat-completions API (DeepSeek, OpenRouter, OpenAI).
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewClient builds a streaming client. httpClient must not carry an overall
// Timeout, since that would cut long streams; bound the connection with
// transport timeouts and the stream with idleTimeout instead.
func NewClient(httpClient *http.Client, apiKey, baseURL string, idleTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// chatRequest mirrors the OpenAI-compatible request shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

const maxErrorBody = 512

// Stream sends a single streaming completion request. Failures before the
// response headers arrive, and non-2xx statuses, wrap domain.ErrUpstreamUnavailable.
func (c *Client) Stream(ctx context.Context, req ports.CompletionRequest) (ports.FragmentStream, error) {
	body, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: http call: %w", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: upstream status %d: %s",
			domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	c.logger.DebugContext(ctx, "upstream stream opened", "model", req.Model, "status", resp.StatusCode)
	return newSSEStream(resp.Body, cancel, c.idleTimeout, c.logger), nil
}
