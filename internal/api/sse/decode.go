package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
)

// Decoder reads stream events back out of the SSE wire format. It is the
// inverse of Writer and is used by tests and client tooling.
type Decoder struct {
	scanner *bufio.Scanner
}

// maxFrameSize bounds a single SSE frame. The default bufio.Scanner limit
// is 64KB, smaller than a content frame carrying a long completion.
const maxFrameSize = 1 << 20

// NewDecoder reads SSE frames from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: s}
}

// Decode returns the next stream event, or io.EOF when the input ends.
// Reading past a Done event yields whatever frames follow; well-formed
// streams have none.
func (d *Decoder) Decode() (chat.StreamEvent, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			return chat.StreamEvent{}, fmt.Errorf("sse: malformed frame %q", line)
		}
		return decodeData(data)
	}
	if err := d.scanner.Err(); err != nil {
		return chat.StreamEvent{}, fmt.Errorf("sse: read frame: %w", err)
	}
	return chat.StreamEvent{}, io.EOF
}

// DecodeAll drains the input and returns every event in order.
func (d *Decoder) DecodeAll() ([]chat.StreamEvent, error) {
	var events []chat.StreamEvent
	for {
		evt, err := d.Decode()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, evt)
	}
}

func decodeData(data string) (chat.StreamEvent, error) {
	if data == doneSentinel {
		return chat.Done(), nil
	}

	var payload struct {
		Content *string `json:"content"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return chat.StreamEvent{}, fmt.Errorf("sse: decode frame %q: %w", data, err)
	}
	switch {
	case payload.Content != nil:
		return chat.Content(*payload.Content), nil
	case payload.Error != nil:
		return chat.Error(*payload.Error), nil
	default:
		return chat.StreamEvent{}, fmt.Errorf("sse: frame %q has neither content nor error", data)
	}
}
