package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mohamednajdawi/portfolio-backend/internal/api/sse"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
)

// ChatRelay is the streaming chat service consumed by the handler.
type ChatRelay interface {
	Mode() chat.Mode
	Stream(ctx context.Context, message string) <-chan chat.StreamEvent
}

// ChatHandler serves POST /api/chat as a Server-Sent Events stream.
type ChatHandler struct {
	relay   ChatRelay
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewChatHandler creates the chat endpoint handler.
func NewChatHandler(relay ChatRelay, m *metrics.Metrics, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		relay:   relay,
		metrics: m,
		logger:  logger.With("component", "chat_handler"),
	}
}

// Chat validates the request, then streams relay events to the client.
// Validation failures are plain JSON 400s; once the SSE headers are out,
// all failures travel as in-stream error events.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	mode := string(h.relay.Mode())

	message, err := chat.ParseMessage(r.Body)
	if err != nil {
		var verr *chat.ValidationError
		details := "invalid request"
		if errors.As(err, &verr) {
			details = verr.Reason
		}
		h.logger.Warn("chat request rejected", "reason", details, "ip", clientIP(r))
		h.metrics.ChatRequests.WithLabelValues(mode, "rejected").Inc()
		writeErrorDetails(w, http.StatusBadRequest, "Invalid input", details)
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		h.logger.Error("streaming unsupported by response writer", "error", err)
		h.metrics.ChatRequests.WithLabelValues(mode, "error").Inc()
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	outcome := "ok"
	for evt := range h.relay.Stream(r.Context(), message) {
		h.metrics.StreamEvents.WithLabelValues(evt.Type.String()).Inc()
		if evt.Type == chat.EventError {
			outcome = "error"
			if evt.Kind != "" {
				h.metrics.UpstreamErrors.WithLabelValues(evt.Kind).Inc()
			}
		}
		if writeErr := writer.WriteEvent(evt); writeErr != nil {
			// Client gone mid-stream. The relay notices the context
			// cancellation and tears down; just stop writing.
			h.logger.Debug("stream write failed", "error", writeErr)
			break
		}
	}
	h.metrics.ChatRequests.WithLabelValues(mode, outcome).Inc()
}
