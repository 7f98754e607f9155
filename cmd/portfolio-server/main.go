// Portfolio backend entry point: streaming chat relay, contact relay, visit
// analytics, and static site serving behind one HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohamednajdawi/portfolio-backend/internal/api"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/analytics"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/chat"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/contact"
	"github.com/mohamednajdawi/portfolio-backend/internal/domain/persona"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/config"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/eventbus"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/geoip"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/llm"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/metrics"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/sqlite"
	"github.com/mohamednajdawi/portfolio-backend/internal/infra/telegram"
	"github.com/mohamednajdawi/portfolio-backend/internal/server"
	"github.com/mohamednajdawi/portfolio-backend/internal/version"
)

// shutdownDrain bounds how long in-flight requests get to finish after a
// termination signal.
const shutdownDrain = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("portfolio-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	showVersion := fs.Bool("version", false, "Show version information")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load() //nolint:errcheck
	cfg := config.Load()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := serve(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger: JSON in production, text elsewhere.
func newLogger(cfg config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

func serve(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.NewDB(cfg.AnalyticsDBPath)
	if err != nil {
		return fmt.Errorf("open analytics db: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		return fmt.Errorf("migrate analytics db: %w", err)
	}
	schemaVersion, err := sqlite.MigrationVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("analytics db ready", "path", cfg.AnalyticsDBPath, "schema_version", schemaVersion)

	// Live mode only when a credential is configured; the relay treats a nil
	// provider as degraded mode.
	var provider llm.Provider
	if cfg.APIKeyPresent() {
		p, provErr := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if provErr != nil {
			return fmt.Errorf("configure openai provider: %w", provErr)
		}
		provider = p
	} else {
		logger.Warn("OPENAI_API_KEY not set, chat runs in degraded mode")
	}

	relay := chat.NewRelay(chat.RelayConfig{
		Provider:     provider,
		Persona:      persona.SystemPrompt(),
		Model:        cfg.OpenAIModel,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		FallbackPace: cfg.FallbackPace,
		Logger:       logger,
	})

	var notifier contact.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tg, tgErr := telegram.NewClient(cfg.TelegramBotToken)
		if tgErr != nil {
			return fmt.Errorf("configure telegram client: %w", tgErr)
		}
		notifier = tg
	} else {
		logger.Warn("telegram credentials not set, contact relay runs unconfigured")
	}
	contactRelay := contact.NewRelay(notifier, cfg.TelegramChatID, logger)

	m := metrics.New()
	bus := eventbus.New()
	store := analytics.NewStore(db)
	recorder := analytics.NewRecorder(store, geoip.NewClient(), bus, m, logger)
	go recorder.Run(ctx)

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		ChatRelay: relay,
		Contact:   contactRelay,
		Analytics: store,
		Bus:       bus,
		Metrics:   m,
		Logger:    logger,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(srvCfg, router, logger)

	logger.Info("starting portfolio backend",
		"version", version.Short(),
		"env", cfg.Env,
		"addr", srv.Addr(),
		"chat_mode", string(relay.Mode()),
		"contact_configured", contactRelay.Configured(),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return <-errCh
}
