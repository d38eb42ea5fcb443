package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randomtoy/arcana/internal/domain"
)

// maxLineSize bounds a single SSE line; longer lines abort the stream.
const maxLineSize = 1 << 20

// sseStream reads server-sent events from a chat-completions response and
// yields one text delta per Next call.
type sseStream struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	cancel  context.CancelFunc
	idle    time.Duration
	logger  *slog.Logger

	data      bytes.Buffer
	done      bool
	timedOut  atomic.Bool
	closeOnce sync.Once
}

func newSSEStream(body io.ReadCloser, cancel context.CancelFunc, idle time.Duration, logger *slog.Logger) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &sseStream{
		scanner: scanner,
		body:    body,
		cancel:  cancel,
		idle:    idle,
		logger:  logger,
	}
}

// Next blocks until the next text delta, the end marker (io.EOF), an error,
// the idle timeout, or ctx cancellation. Any received line, keep-alive
// comments included, restarts the idle timer.
func (s *sseStream) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}

	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	var timer *time.Timer
	if s.idle > 0 {
		timer = time.AfterFunc(s.idle, func() {
			s.timedOut.Store(true)
			s.cancel()
		})
		defer timer.Stop()
	}

	for s.scanner.Scan() {
		if timer != nil {
			timer.Reset(s.idle)
		}
		line := s.scanner.Bytes()
		if len(line) == 0 {
			// Blank line dispatches the buffered event.
			if text, ok, err := s.dispatch(ctx); ok || err != nil {
				return text, err
			}
			continue
		}
		s.field(line)
	}

	if s.data.Len() > 0 {
		if text, ok, err := s.dispatch(ctx); ok || err != nil {
			return text, err
		}
	}
	return "", s.readError(ctx, s.scanner.Err())
}

// field applies one SSE line. Only data fields matter; comments (":"),
// event, id and retry lines are ignored.
func (s *sseStream) field(line []byte) {
	value, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return
	}
	value = bytes.TrimPrefix(value, []byte(" "))
	if s.data.Len() > 0 {
		s.data.WriteByte('\n')
	}
	s.data.Write(value)
}

// dispatch decodes the buffered event. ok reports that Next should return.
func (s *sseStream) dispatch(ctx context.Context) (string, bool, error) {
	if s.data.Len() == 0 {
		return "", false, nil
	}
	payload := bytes.Clone(s.data.Bytes())
	s.data.Reset()

	chunk := DecodeChunk(payload)
	switch chunk.Kind {
	case ChunkText:
		return chunk.Text, true, nil
	case ChunkDone:
		s.done = true
		return "", true, io.EOF
	case ChunkError:
		return "", true, fmt.Errorf("%w: upstream error: %s", domain.ErrStreamInterrupted, chunk.Text)
	case ChunkMalformed:
		s.logger.WarnContext(ctx, "skipping malformed upstream chunk", "payload", truncate(payload, 200))
	}
	return "", false, nil
}

func (s *sseStream) readError(ctx context.Context, err error) error {
	switch {
	case s.timedOut.Load():
		return fmt.Errorf("%w: no data for %s", domain.ErrStreamInterrupted, s.idle)
	case ctx.Err() != nil:
		return ctx.Err()
	case err == nil:
		return fmt.Errorf("%w: stream ended without end marker", domain.ErrStreamInterrupted)
	case errors.Is(err, bufio.ErrTooLong):
		return fmt.Errorf("%w: line exceeds %d bytes", domain.ErrStreamInterrupted, maxLineSize)
	default:
		return fmt.Errorf("%w: %w", domain.ErrStreamInterrupted, err)
	}
}

// Close aborts the upstream request and releases the connection.
func (s *sseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
	})
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
