package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/analytics"
)

// AnalyticsReader provides the current analytics snapshot.
type AnalyticsReader interface {
	Snapshot(ctx context.Context) (*analytics.Snapshot, error)
}

// AnalyticsHandler serves GET /api/analytics/data.
type AnalyticsHandler struct {
	store  AnalyticsReader
	logger *slog.Logger
}

// NewAnalyticsHandler creates the analytics read endpoint handler.
func NewAnalyticsHandler(store AnalyticsReader, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:  store,
		logger: logger.With("component", "analytics_handler"),
	}
}

// Data returns the retained visits and running totals.
func (h *AnalyticsHandler) Data(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load analytics snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load analytics data")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
