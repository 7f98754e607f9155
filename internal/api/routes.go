// Route registration and go-chi router setup for the portfolio backend.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mohamednajdawi/portfolio-backend/internal/api/handlers"
	apmiddleware "github.com/mohamednajdawi/portfolio-backend/internal/api/middleware"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/config"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/eventbus"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
)

// Rate limits carried over from the original deployment: a generous global
// budget plus a tight one on the chat endpoint, which is the expensive one.
const (
	globalRateRequests = 100
	globalRateWindow   = 15 * time.Minute
	chatRateRequests   = 10
	chatRateWindow     = time.Minute
)

// Deps are the wired services the router exposes over HTTP.
type Deps struct {
	Config    config.Config
	ChatRelay handlers.ChatRelay
	Contact   handlers.ContactRelay
	Analytics handlers.AnalyticsReader
	Bus       eventbus.EventBus
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewRouter creates and configures the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(apmiddleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(apmiddleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(apmiddleware.NewRateLimiter(globalRateRequests, globalRateWindow).Handler)
	r.Use(apmiddleware.TrackVisits(deps.Bus))

	chatHandler := handlers.NewChatHandler(deps.ChatRelay, deps.Metrics, deps.Logger)
	contactHandler := handlers.NewContactHandler(deps.Contact, deps.Metrics, deps.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Config, deps.ChatRelay.Mode())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apmiddleware.NewRateLimiter(chatRateRequests, chatRateWindow).Handler)
			r.Post("/chat", chatHandler.Chat) // POST /api/chat
		})
		r.Post("/contact", contactHandler.Submit)       // POST /api/contact
		r.Get("/analytics/data", analyticsHandler.Data) // GET /api/analytics/data
		r.Get("/health", healthHandler.Health)          // GET /api/health
		r.Get("/health/detailed", healthHandler.HealthDetailed)
	})

	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Static site: named pages first, then any file under the web root.
	registerStatic(r, deps.Config.WebRoot)

	r.NotFound(notFoundJSON)

	return r
}

// registerStatic serves the frontend from webRoot. The two page routes map
// clean URLs onto their HTML files; everything else falls through to the
// file server.
func registerStatic(r *chi.Mux, webRoot string) {
	r.Get("/", servePage(webRoot, "index.html"))
	r.Get("/blog", servePage(webRoot, "blog.html"))
	r.Get("/*", serveAsset(webRoot))
}

func servePage(webRoot, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(webRoot, page)
		if _, err := os.Stat(path); err != nil {
			notFoundJSON(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// serveAsset serves files under webRoot, rejecting traversal and missing
// files with the JSON 404.
func serveAsset(webRoot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/")
		clean := filepath.Clean(rel)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			notFoundJSON(w, r)
			return
		}
		path := filepath.Join(webRoot, clean)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			notFoundJSON(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

func notFoundJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"Not Found","details":"The requested resource does not exist"}`)) //nolint:errcheck
}
