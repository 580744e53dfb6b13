package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/quocvuong92/sgpt/internal/logging"
)

// doneMarker ends an SSE completion stream.
const doneMarker = "[DONE]"

// SSEProcessor consumes one server-sent event stream and accumulates
// the assistant text carried in its data payloads.
type SSEProcessor struct {
	scanner *bufio.Scanner
	content strings.Builder
	chunks  int
}

// NewSSEProcessor wraps r for line-by-line SSE consumption.
func NewSSEProcessor(r io.Reader) *SSEProcessor {
	return &SSEProcessor{scanner: bufio.NewScanner(r)}
}

// Process reads the stream until the [DONE] marker or EOF, passing
// each content fragment to onChunk as it is decoded. A context
// cancelled mid-stream surfaces as the context's error.
func (p *SSEProcessor) Process(ctx context.Context, onChunk func(content string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, ok := strings.CutPrefix(strings.TrimSpace(p.scanner.Text()), "data: ")
		if !ok {
			continue
		}
		if data == doneMarker {
			return nil
		}

		p.handlePayload(data, onChunk)
	}

	if err := p.scanner.Err(); err != nil {
		// Cancellation closes the response body under the scanner.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to read stream: %w", err)
	}
	return nil
}

// handlePayload decodes one data payload and forwards its fragment.
// Undecodable payloads are logged and skipped so one bad chunk cannot
// kill the whole answer.
func (p *SSEProcessor) handlePayload(data string, onChunk func(string)) {
	var chunk ChatResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		logging.Debug("failed to parse streaming chunk", logging.Fields{
			"error": err.Error(),
			"data":  data,
		})
		return
	}

	if len(chunk.Choices) == 0 {
		return
	}
	fragment := chunk.Choices[0].Delta.Content
	if fragment == "" {
		return
	}

	p.content.WriteString(fragment)
	p.chunks++
	if onChunk != nil {
		onChunk(fragment)
	}
}

// GetContent returns the accumulated assistant text.
func (p *SSEProcessor) GetContent() string {
	return p.content.String()
}

// ChunkCount returns how many content fragments arrived.
func (p *SSEProcessor) ChunkCount() int {
	return p.chunks
}
