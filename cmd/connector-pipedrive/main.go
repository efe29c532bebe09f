// connector-pipedrive serves the Pipedrive tool catalog over HTTP, both to
// agents (/v1/tools) and to a gateway speaking the connector /exec protocol.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bturcanu/pipedrive-connector/pkg/auth"
	"github.com/bturcanu/pipedrive-connector/pkg/config"
	"github.com/bturcanu/pipedrive-connector/pkg/connectors/sdk"
	"github.com/bturcanu/pipedrive-connector/pkg/evidence"
	pdOtel "github.com/bturcanu/pipedrive-connector/pkg/otel"
	"github.com/bturcanu/pipedrive-connector/pkg/plugin"
)

var version = "dev"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ── OpenTelemetry ────────────────────────────────────────────────────
	otelShutdown, err := pdOtel.Setup(ctx, pdOtel.ConfigFromEnv("connector-pipedrive", version, true))
	if err != nil {
		log.Error("otel setup failed", "error", err)
	} else {
		defer otelShutdown(context.Background()) //nolint:errcheck // best-effort shutdown
	}

	// ── Pipedrive ────────────────────────────────────────────────────────
	file, err := config.LoadFile(config.EnvOr("PIPEDRIVE_CONFIG", "pipedrive.yaml"))
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	cfg := config.FromOptions(config.EnvOptions(file.Options()))
	reg, err := plugin.NewRegistry(cfg, plugin.Options{}, log)
	if err != nil {
		log.Error("pipedrive configuration invalid", "error", err)
		os.Exit(1)
	}

	// ── Journal (optional) ───────────────────────────────────────────────
	var (
		journal Journal
		ready   = func(context.Context) error { return nil }
	)
	if dsn := evidence.DSNFromEnv(); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := evidence.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Error("journal schema failed", "error", err)
			os.Exit(1)
		}
		journal = Journal{Recorder: evidence.NewLogger(store, log), Reader: store}
		ready = store.Ping
		log.Info("invocation journal enabled")
	}

	keyStore := auth.NewKeyStore(os.Getenv("API_KEYS"))
	if keyStore.Len() == 0 {
		log.Warn("no API keys configured; /v1 endpoints will reject every request")
	}

	srv := NewServer(log, reg, journal, cfg.ForceLegacy, config.EnvOrInt("RATE_LIMIT_PER_TENANT", 20))
	handler := routes(srv, keyStore, os.Getenv("INTERNAL_AUTH_TOKEN"), ready, log)

	// ── Metrics (internal) ───────────────────────────────────────────────
	metricsAddr := config.EnvOr("METRICS_ADDR", "127.0.0.1:9090")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	go func() {
		log.Info("metrics server starting", "addr", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()

	// ── Server ───────────────────────────────────────────────────────────
	addr := config.EnvOr("CONNECTOR_PIPEDRIVE_ADDR", ":8084")
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("connector-pipedrive starting",
			"addr", addr,
			"version", version,
			"domain", cfg.Domain,
			"legacy", cfg.ForceLegacy,
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down connector-pipedrive")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := metricsSrv.Shutdown(shutCtx); err != nil {
		log.Error("metrics server shutdown error", "error", err)
	}
}

// routes builds the public router. /exec is mounted only when an internal
// token is configured.
func routes(s *Server, keys *auth.KeyStore, internalToken string, ready func(context.Context) error, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.APIKeyAuth(keys))
		r.Get("/v1/tools", s.HandleListTools)
		r.Post("/v1/tools/{name}", s.HandleInvoke)
		if s.journal.Reader != nil {
			r.Get("/v1/invocations/{call_id}", s.HandleGetInvocation)
			r.Get("/v1/journal/verify", s.HandleVerifyJournal)
		}
	})

	if internalToken != "" {
		r.With(auth.InternalToken(internalToken)).Post("/exec", sdk.Handler(s, sdk.Config{
			Timeout: 25 * time.Second,
			Logger:  log,
		}))
	} else {
		log.Warn("INTERNAL_AUTH_TOKEN not set; /exec disabled")
	}
	return r
}
