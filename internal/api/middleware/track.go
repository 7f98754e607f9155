package middleware

import (
	"net/http"
	"time"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/analytics"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/eventbus"
)

// trackedPages are the entry points worth counting. Asset and API requests
// are noise, not visits.
var trackedPages = map[string]bool{
	"/":           true,
	"/index.html": true,
}

// TrackVisits publishes a page-view event for tracked pages before serving
// the request. Publishing is non-blocking; the visitor never waits on the
// analytics pipeline.
func TrackVisits(bus eventbus.EventBus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && trackedPages[r.URL.Path] {
				referrer := r.Referer()
				if referrer == "" {
					referrer = "Direct"
				}
				bus.Publish(analytics.TopicVisit, analytics.PageView{
					IP:        clientIP(r),
					UserAgent: r.UserAgent(),
					Page:      r.URL.Path,
					Referrer:  referrer,
					Timestamp: time.Now(),
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
