package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mohamednajdawi/portfolio-backend/internal/infra/eventbus"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/geoip"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
)

// TopicVisit is the event bus topic the tracking middleware publishes to.
const TopicVisit = "analytics.visit"

// PageView is the payload published per tracked request.
type PageView struct {
	IP        string
	UserAgent string
	Page      string
	Referrer  string
	Timestamp time.Time
}

// Locator resolves an IP to a coarse location. *geoip.Client satisfies it.
type Locator interface {
	Lookup(ctx context.Context, ip string) geoip.Location
}

// Recorder consumes page-view events from the bus, enriches them with
// geolocation, and persists them. It runs as a single background goroutine
// so SQLite writes are naturally serialized.
type Recorder struct {
	store   *Store
	locator Locator
	events  <-chan eventbus.Event
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRecorder subscribes to the visit topic on bus.
func NewRecorder(store *Store, locator Locator, bus eventbus.EventBus, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		locator: locator,
		events:  bus.Subscribe(TopicVisit),
		metrics: m,
		logger:  logger.With("component", "analytics"),
	}
}

// Run consumes events until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-r.events:
			pv, ok := evt.Payload.(PageView)
			if !ok {
				r.logger.Warn("dropping event with unexpected payload", "topic", evt.Topic)
				continue
			}
			r.record(ctx, pv)
		}
	}
}

// record enriches and persists a single page view. Failures are logged and
// dropped; visit tracking must never surface errors to visitors.
func (r *Recorder) record(ctx context.Context, pv PageView) {
	ts := pv.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	visit := Visit{
		ID:        uuid.NewString(),
		Timestamp: ts,
		IP:        pv.IP,
		Location:  r.locator.Lookup(ctx, pv.IP),
		UserAgent: pv.UserAgent,
		Page:      pv.Page,
		Referrer:  pv.Referrer,
	}

	if err := r.store.Insert(ctx, visit); err != nil {
		r.logger.Error("failed to record visit", "error", err, "page", pv.Page)
		return
	}
	r.metrics.VisitsTracked.Inc()
	r.logger.Debug("visit recorded",
		"page", pv.Page,
		"city", visit.Location.City,
		"country", visit.Location.Country,
	)
}
