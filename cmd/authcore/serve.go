package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/attempt"
	"github.com/MrEthical07/authcore/middleware"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/userstore/memory"
	"github.com/MrEthical07/authcore/userstore/postgres"
	"github.com/MrEthical07/authcore/userstore/sqlite"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the register, login and token endpoints over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Server.validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, slog.Default())
		},
	}

	registerServerFlags(cmd.Flags())
	return cmd
}

func runServer(ctx context.Context, cfg appConfig, logger *slog.Logger) error {
	users, closeUsers, err := openUserStore(ctx, cfg.Server, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	attempts, closeAttempts, err := openAttemptStore(ctx, cfg.Server, logger)
	if err != nil {
		return err
	}
	defer closeAttempts()

	secret, err := cfg.Server.secret()
	if err != nil {
		return err
	}
	if secret.IsZero() {
		logger.Warn("no signing secret configured; tokens will not survive a restart")
	}

	cfg.Auth.Metrics.Enabled = true
	engine, err := authcore.New().
		WithConfig(cfg.Auth).
		WithUserStore(users).
		WithAttemptStore(attempts).
		WithSecret(secret).
		WithAuditSink(authcore.NewSlogSink(logger)).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	for _, w := range cfg.Auth.Lint() {
		logger.Warn("config lint", "code", w.Code, "message", w.Message)
	}

	if cfg.Server.AttemptStore == attemptStoreMemory {
		go engine.RunAttemptJanitor(ctx, cfg.Server.JanitorInterval)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		promexport.NewCollector(engine),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(engine, reg, cfg.Server, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newRouter(engine *authcore.Engine, reg *prometheus.Registry, cfg serverConfig, logger *slog.Logger) http.Handler {
	h := &handlers{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	if cfg.TrustProxy {
		r.Use(chimid.RealIP)
	}
	r.Use(chimid.Recoverer)
	r.Use(middleware.SecureHeaders(cfg.Dev))
	r.Use(middleware.RequestMetrics(reg))
	r.Use(clientIP)

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh-token", h.refresh)
	r.Post("/logout", h.logout)
	r.With(middleware.RequireToken(engine)).Get("/protected", h.protected)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return r
}

// clientIP attaches the peer address as the attempt identifier. RealIP only
// rewrites it when server.trust_proxy is set.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(authcore.WithClientIP(r.Context(), remoteHost(r.RemoteAddr))))
	})
}

func openUserStore(ctx context.Context, cfg serverConfig, logger *slog.Logger) (authcore.UserStore, func(), error) {
	switch cfg.UserStore {
	case userStoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("user store ready", "kind", userStoreSQLite, "path", cfg.SQLitePath)
		return store, closer(store, logger), nil

	case userStorePostgres:
		var store *postgres.Store
		var closePool func()
		err := withStartupRetry(ctx, logger, "postgres", func(ctx context.Context) error {
			pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
			if err != nil {
				return err
			}
			store = postgres.New(pool)
			closePool = pool.Close
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			closePool()
			return nil, nil, err
		}
		logger.Info("user store ready", "kind", userStorePostgres)
		return store, closePool, nil

	default:
		logger.Warn("using in-memory user store; accounts are lost on restart")
		return memory.New(), func() {}, nil
	}
}

func openAttemptStore(ctx context.Context, cfg serverConfig, logger *slog.Logger) (attempt.Store, func(), error) {
	if cfg.AttemptStore != attemptStoreRedis {
		return attempt.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	store := attempt.NewRedisStore(client, cfg.RedisPrefix)
	if err := withStartupRetry(ctx, logger, "redis", store.Ping); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("attempt store ready", "kind", attemptStoreRedis, "addr", cfg.RedisAddr)
	return store, closer(client, logger), nil
}

// withStartupRetry retries fn with exponential backoff while a backend comes
// up.
func withStartupRetry(ctx context.Context, logger *slog.Logger, backend string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	attemptNo := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptNo++
		if err := fn(ctx); err != nil {
			logger.Warn("backend not ready", "backend", backend, "attempt", attemptNo, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func closer(c io.Closer, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
