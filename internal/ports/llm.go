package ports

import "context"

// CompletionRequest is a single streaming completion call.
type CompletionRequest struct {
	Model  string
	Prompt string
}

// FragmentStream is a pull-based sequence of generated text.
// Next returns io.EOF once the upstream signals the end of the stream.
// Close stops the upstream read and releases the connection; it may be
// called more than once.
type FragmentStream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Completer opens a streaming completion against a language model.
type Completer interface {
	Stream(ctx context.Context, req CompletionRequest) (FragmentStream, error)
}
