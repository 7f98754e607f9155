package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/contact"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
)

// ContactRelay forwards a validated submission to the site owner.
type ContactRelay interface {
	Relay(ctx context.Context, sub contact.Submission) (contact.Result, error)
}

// ContactHandler serves POST /api/contact.
type ContactHandler struct {
	relay   ContactRelay
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewContactHandler creates the contact endpoint handler.
func NewContactHandler(relay ContactRelay, m *metrics.Metrics, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		relay:   relay,
		metrics: m,
		logger:  logger.With("component", "contact_handler"),
	}
}

// contactResponse is the visitor-facing outcome for every contact request.
type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit validates and relays a contact-form submission.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.metrics.ContactRelays.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, contactResponse{
			Success: false,
			Message: "Request body must be valid JSON",
		})
		return
	}

	if err := sub.Validate(); err != nil {
		var verr *contact.ValidationError
		reason := "Invalid submission"
		if errors.As(err, &verr) {
			reason = verr.Reason
		}
		h.logger.Warn("contact submission rejected", "reason", reason, "ip", clientIP(r))
		h.metrics.ContactRelays.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, contactResponse{Success: false, Message: reason})
		return
	}

	res, err := h.relay.Relay(r.Context(), sub)
	if err != nil {
		h.logger.Error("contact relay failed", "error", err)
		h.metrics.ContactRelays.WithLabelValues("failed").Inc()
		writeJSON(w, http.StatusInternalServerError, contactResponse{
			Success: false,
			Message: "Failed to send message. Please try again later.",
		})
		return
	}

	if res.Sent {
		h.metrics.ContactRelays.WithLabelValues("sent").Inc()
	} else {
		h.metrics.ContactRelays.WithLabelValues("unconfigured").Inc()
	}
	writeJSON(w, http.StatusOK, contactResponse{Success: res.Sent, Message: res.Message})
}
