package openaicompat

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// ChunkKind classifies one SSE data payload.
type ChunkKind int

const (
	// ChunkSkip carries no text (role-only delta, usage block, keep-alive).
	ChunkSkip ChunkKind = iota
	ChunkText
	ChunkDone
	ChunkMalformed
	ChunkError
)

// Chunk is the decoded form of one upstream payload.
type Chunk struct {
	Kind ChunkKind
	Text string
}

var doneMarker = []byte("[DONE]")

// DecodeChunk extracts the text delta from a single SSE data payload.
// All knowledge of the chat-completions envelope lives here. The end of the
// stream is recognized from the payload itself, never from the content, so
// generated text that happens to read "[DONE]" is still delivered.
func DecodeChunk(payload []byte) Chunk {
	payload = bytes.TrimSpace(payload)
	if bytes.Equal(payload, doneMarker) {
		return Chunk{Kind: ChunkDone}
	}
	if len(payload) == 0 {
		return Chunk{Kind: ChunkSkip}
	}
	if !gjson.ValidBytes(payload) {
		return Chunk{Kind: ChunkMalformed}
	}

	if e := gjson.GetBytes(payload, "error"); e.Exists() && e.Type != gjson.Null {
		msg := e.Get("message").String()
		if msg == "" {
			msg = e.String()
		}
		return Chunk{Kind: ChunkError, Text: msg}
	}

	content := gjson.GetBytes(payload, "choices.0.delta.content")
	if content.Type != gjson.String || content.Str == "" {
		return Chunk{Kind: ChunkSkip}
	}
	return Chunk{Kind: ChunkText, Text: content.Str}
}
