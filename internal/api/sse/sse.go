// Package sse writes chat stream events in the Server-Sent Events wire
// format consumed by the portfolio frontend:
//
//	data: {"content":"chunk"}
//	data: {"error":"message"}
//	data: [DONE]
//
// Every event is flushed immediately so chunks render as they arrive.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
)

// doneSentinel terminates the stream. It is deliberately not JSON.
const doneSentinel = "[DONE]"

// Writer serializes stream events onto an HTTP response.
type Writer struct {
	bw      *bufio.Writer
	flusher http.Flusher
}

// NewWriter sets the SSE response headers and returns a Writer. It fails when
// the ResponseWriter cannot flush, which would buffer the whole stream.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not implement http.Flusher")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{bw: bufio.NewWriter(w), flusher: flusher}, nil
}

// contentEvent and errorEvent are the two JSON event payloads.
type contentEvent struct {
	Content string `json:"content"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// WriteEvent writes one stream event and flushes it to the client.
func (w *Writer) WriteEvent(evt chat.StreamEvent) error {
	switch evt.Type {
	case chat.EventContent:
		return w.writeJSON(contentEvent{Content: evt.Text})
	case chat.EventError:
		return w.writeJSON(errorEvent{Error: evt.Text})
	case chat.EventDone:
		return w.writeData(doneSentinel)
	default:
		return fmt.Errorf("sse: unknown event type %d", evt.Type)
	}
}

func (w *Writer) writeJSON(payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: marshal event: %w", err)
	}
	return w.writeData(string(b))
}

func (w *Writer) writeData(data string) error {
	if _, err := fmt.Fprintf(w.bw, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("sse: flush event: %w", err)
	}
	w.flusher.Flush()
	return nil
}
