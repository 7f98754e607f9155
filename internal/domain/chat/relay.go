package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mohamednajdawi/portfolio-backend/internal/infra/llm"
)

// Mode is the relay's operating mode, decided once at construction.
type Mode string

const (
	// ModeLive forwards messages to the upstream completion API.
	ModeLive Mode = "live"
	// ModeDegraded simulates a streamed answer from fixed local text.
	ModeDegraded Mode = "degraded"
)

// FallbackMessage is streamed character-by-character in degraded mode.
const FallbackMessage = "Thanks for stopping by! The AI assistant is offline right now because no " +
	"API credential is configured on the server. You can still learn about Mohammad " +
	"through the portfolio sections, or reach him directly via the contact form."

// DefaultFallbackPace is the per-character delay in degraded mode when no
// pacing is configured.
const DefaultFallbackPace = 30 * time.Millisecond

// Relay orchestrates one chat request: persona context plus sanitized user
// message in, ordered StreamEvent sequence out. The provider handle and all
// parameters are read-only after construction, so a single Relay is shared by
// all concurrent requests.
type Relay struct {
	provider     llm.Provider // nil selects degraded mode
	persona      string
	model        string
	maxTokens    int
	temperature  float32
	fallbackPace time.Duration
	logger       *slog.Logger
}

// RelayConfig wires a Relay.
type RelayConfig struct {
	// Provider is the completion client; nil means no credential is
	// configured and the relay runs degraded.
	Provider llm.Provider
	// Persona is the fixed system-role context injected into every request.
	Persona string
	// Model, MaxTokens and Temperature are passed through to the provider.
	Model       string
	MaxTokens   int
	Temperature float32
	// FallbackPace is the per-character delay in degraded mode.
	FallbackPace time.Duration
	Logger       *slog.Logger
}

// NewRelay constructs a Relay. Mode selection is a pure function of provider
// presence; nothing is mutated afterwards.
func NewRelay(cfg RelayConfig) *Relay {
	pace := cfg.FallbackPace
	if pace <= 0 {
		pace = DefaultFallbackPace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		provider:     cfg.Provider,
		persona:      cfg.Persona,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		fallbackPace: pace,
		logger:       logger,
	}
}

// Mode reports whether the relay is live or degraded.
func (r *Relay) Mode() Mode {
	if r.provider == nil {
		return ModeDegraded
	}
	return ModeLive
}

// Stream runs one request against the relay and returns its event sequence.
// The channel is closed after the terminal Done event, or earlier when ctx is
// canceled (client disconnect), the single case in which Done may be absent,
// since there is no one left to read it. Exactly one upstream attempt is
// made; the relay never retries.
func (r *Relay) Stream(ctx context.Context, message string) <-chan StreamEvent {
	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		if r.provider == nil {
			r.streamFallback(ctx, out)
			return
		}
		r.streamLive(ctx, message, out)
	}()
	return out
}

// emit delivers ev unless the client is gone. Reports whether delivery
// happened.
func emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamFallback emits the fixed message one character at a time, paced so
// the simulated generation is observable, then the terminal sentinel.
func (r *Relay) streamFallback(ctx context.Context, out chan<- StreamEvent) {
	timer := time.NewTimer(r.fallbackPace)
	defer timer.Stop()

	for _, c := range FallbackMessage {
		if !emit(ctx, out, Content(string(c))) {
			return
		}
		timer.Reset(r.fallbackPace)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}

	r.logger.Info("served fallback chat response", "mode", ModeDegraded, "length", len(FallbackMessage))
	emit(ctx, out, Done())
}

// streamLive forwards the message upstream and relays chunks as they arrive.
// Once streaming has begun, failures are delivered in-band as a single Error
// event followed by Done; the transport has already committed its status.
func (r *Relay) streamLive(ctx context.Context, message string, out chan<- StreamEvent) {
	stream, err := r.provider.StreamComplete(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: r.persona},
			{Role: llm.RoleUser, Content: message},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		r.failStream(ctx, out, err)
		return
	}
	defer stream.Close()

	emitted := 0
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if ctx.Err() != nil {
				// Client went away; the upstream error is a side effect
				// of the aborted consumption, not a reportable failure.
				return
			}
			r.failStream(ctx, out, recvErr)
			return
		}
		// Empty deltas are suppressed, not forwarded.
		if chunk == "" {
			continue
		}
		if !emit(ctx, out, Content(chunk)) {
			return
		}
		emitted += len(chunk)
	}

	r.logger.Info("chat response streamed", "mode", ModeLive, "emitted_bytes", emitted)
	emit(ctx, out, Done())
}

// failStream translates an upstream failure into the in-band error protocol:
// one Error event with a user-safe message selected by kind, then Done. Raw
// detail stays in the server log.
func (r *Relay) failStream(ctx context.Context, out chan<- StreamEvent, err error) {
	kind := llm.Classify(err)
	r.logger.Error("upstream completion failed", "kind", kind.String(), "error", err)
	if !emit(ctx, out, ClassifiedError(llm.UserMessage(kind), kind.String())) {
		return
	}
	emit(ctx, out, Done())
}
