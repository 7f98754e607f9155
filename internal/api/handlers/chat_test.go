package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohamednajdawi/portfolio-backend/internal/api/sse"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chatRelayStub struct {
	mode    chat.Mode
	events  []chat.StreamEvent
	lastMsg string
}

func (s *chatRelayStub) Mode() chat.Mode { return s.mode }

func (s *chatRelayStub) Stream(_ context.Context, message string) <-chan chat.StreamEvent {
	s.lastMsg = message
	out := make(chan chat.StreamEvent, len(s.events))
	for _, evt := range s.events {
		out <- evt
	}
	close(out)
	return out
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func TestChatHandler_StreamsEvents(t *testing.T) {
	relay := &chatRelayStub{mode: chat.ModeLive, events: []chat.StreamEvent{
		chat.Content("Hello"),
		chat.Content(" there"),
		chat.Done(),
	}}
	h := NewChatHandler(relay, metrics.New(), discardLogger())

	rr := postChat(t, h, `{"message":"Tell me about your projects"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	events, err := sse.NewDecoder(rr.Body).DecodeAll()
	if err != nil {
		t.Fatalf("decoding stream failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0] != chat.Content("Hello") || events[1] != chat.Content(" there") {
		t.Errorf("unexpected content events: %+v", events[:2])
	}
	if events[2].Type != chat.EventDone {
		t.Errorf("expected terminal done event, got %+v", events[2])
	}
	if relay.lastMsg != "Tell me about your projects" {
		t.Errorf("expected sanitized message passed through, got %q", relay.lastMsg)
	}
}

func TestChatHandler_SanitizesBeforeRelay(t *testing.T) {
	relay := &chatRelayStub{mode: chat.ModeLive, events: []chat.StreamEvent{chat.Done()}}
	h := NewChatHandler(relay, metrics.New(), discardLogger())

	body, _ := json.Marshal(map[string]string{"message": "<script>alert(1)</script> hi"})
	rr := postChat(t, h, string(body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.ContainsAny(relay.lastMsg, "<>") {
		t.Errorf("expected angle brackets stripped before relay, got %q", relay.lastMsg)
	}
}

func TestChatHandler_Validation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDetails string
	}{
		{"missing message", `{}`, "Message is required"},
		{"empty message", `{"message":"   "}`, "Message cannot be empty"},
		{"oversized message", `{"message":"` + strings.Repeat("a", 1001) + `"}`, "Message cannot exceed 1000 characters"},
		{"invalid json", `{message}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := &chatRelayStub{mode: chat.ModeLive}
			h := NewChatHandler(relay, metrics.New(), discardLogger())

			rr := postChat(t, h, tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("expected JSON error body, got %q", rr.Body.String())
			}
			if resp["error"] != "Invalid input" {
				t.Errorf(`expected error "Invalid input", got %q`, resp["error"])
			}
			if tt.wantDetails != "" && resp["details"] != tt.wantDetails {
				t.Errorf("expected details %q, got %q", tt.wantDetails, resp["details"])
			}
			if relay.lastMsg != "" {
				t.Errorf("relay must not be called for rejected input, got %q", relay.lastMsg)
			}
		})
	}
}

func TestChatHandler_ErrorEventKeepsStatus200(t *testing.T) {
	relay := &chatRelayStub{mode: chat.ModeLive, events: []chat.StreamEvent{
		chat.Content("partial"),
		chat.Error("OpenAI API quota exceeded. Please check your billing."),
		chat.Done(),
	}}
	h := NewChatHandler(relay, metrics.New(), discardLogger())

	rr := postChat(t, h, `{"message":"hello there"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("headers are committed before upstream failures, expected 200, got %d", rr.Code)
	}
	events, err := sse.NewDecoder(rr.Body).DecodeAll()
	if err != nil {
		t.Fatalf("decoding stream failed: %v", err)
	}
	if last := events[len(events)-1]; last.Type != chat.EventDone {
		t.Errorf("expected done after the error event, got %+v", last)
	}
}

func TestChatHandler_CountsUpstreamErrorsByKind(t *testing.T) {
	relay := &chatRelayStub{mode: chat.ModeLive, events: []chat.StreamEvent{
		chat.Content("partial"),
		chat.ClassifiedError("OpenAI API quota exceeded. Please check your billing.", "quota"),
		chat.Done(),
	}}
	m := metrics.New()
	h := NewChatHandler(relay, m, discardLogger())

	rr := postChat(t, h, `{"message":"hello there"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `portfolio_chat_upstream_errors_total{kind="quota"} 1`
	if !strings.Contains(scrape.Body.String(), want) {
		t.Errorf("expected exposition to contain %q", want)
	}
}

// plainResponseWriter hides Flusher from the handler.
type plainResponseWriter struct {
	http.ResponseWriter
}

func TestChatHandler_NonFlushingWriter(t *testing.T) {
	relay := &chatRelayStub{mode: chat.ModeLive}
	h := NewChatHandler(relay, metrics.New(), discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"hello there"}`))
	rr := httptest.NewRecorder()
	h.Chat(plainResponseWriter{rr}, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a non-flushing writer, got %d", rr.Code)
	}
}
