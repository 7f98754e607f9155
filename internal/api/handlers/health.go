package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/config"
	"github.com/mohamednajdawi/portfolio-backend/internal/version"
)

// HealthHandler serves the liveness probes.
type HealthHandler struct {
	cfg     config.Config
	mode    chat.Mode
	started time.Time
}

// NewHealthHandler creates the health endpoint handler.
func NewHealthHandler(cfg config.Config, mode chat.Mode) *HealthHandler {
	return &HealthHandler{cfg: cfg, mode: mode, started: time.Now()}
}

type openAIStatus struct {
	Configured bool   `json:"configured"`
	Model      string `json:"model"`
	Mode       string `json:"mode"`
}

type healthResponse struct {
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	Service       string       `json:"service"`
	Version       string       `json:"version"`
	Environment   string       `json:"environment"`
	UptimeSeconds int64        `json:"uptimeSeconds"`
	OpenAI        openAIStatus `json:"openai"`
}

type detailedHealthResponse struct {
	healthResponse
	MaxTokens      int      `json:"maxTokens"`
	Temperature    float32  `json:"temperature"`
	AllowedOrigins []string `json:"allowedOrigins"`
	GoVersion      string   `json:"goVersion"`
	Platform       string   `json:"platform"`
	NumGoroutine   int      `json:"numGoroutine"`
}

func (h *HealthHandler) base() healthResponse {
	return healthResponse{
		Status:        "OK",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Service:       "portfolio-backend",
		Version:       version.Short(),
		Environment:   h.cfg.Env,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		OpenAI: openAIStatus{
			Configured: h.cfg.APIKeyPresent(),
			Model:      h.cfg.OpenAIModel,
			Mode:       string(h.mode),
		},
	}
}

// Health is the plain liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.base())
}

// HealthDetailed adds runtime and configuration detail to the probe.
func (h *HealthHandler) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, detailedHealthResponse{
		healthResponse: h.base(),
		MaxTokens:      h.cfg.MaxTokens,
		Temperature:    h.cfg.Temperature,
		AllowedOrigins: h.cfg.AllowedOrigins,
		GoVersion:      runtime.Version(),
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		NumGoroutine:   runtime.NumGoroutine(),
	})
}
