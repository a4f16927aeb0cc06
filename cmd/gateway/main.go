// Command gateway runs the MCP tool-catalog gateway: it loads tenant
// credentials and static config from the environment, builds the tool
// dispatcher, and serves both wire transports over one HTTP listener
// until it receives SIGINT/SIGTERM (spec.md §4.4, §4.6).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
	"github.com/nareshsaladi2024/OICAgentOps/internal/dispatch"
	"github.com/nareshsaladi2024/OICAgentOps/internal/httpapi"
	"github.com/nareshsaladi2024/OICAgentOps/internal/logctx"
	"github.com/nareshsaladi2024/OICAgentOps/internal/session"
	"github.com/nareshsaladi2024/OICAgentOps/internal/tokencache"
	"github.com/nareshsaladi2024/OICAgentOps/internal/upstream"
)

const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 0 // streaming responses must not be capped
	serverIdleTimeout  = 120 * time.Second
)

func main() {
	log := newLogger()

	if err := run(log); err != nil {
		log.Error("gateway.fatal", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("NODE_ENV") == "development" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func run(log *slog.Logger) error {
	log = logctx.New(log)

	staticCfg, err := config.LoadStatic()
	if err != nil {
		return fmt.Errorf("loading static config: %w", err)
	}

	tenants := config.LoadTenants()
	if !tenants.AnyConfigured() {
		return fmt.Errorf("startup: no tenant has complete credentials; configure at least one of %v", config.TenantIDs)
	}

	bulkMode := upstream.BulkModeFanout
	if staticCfg.BulkMode == "collective" {
		bulkMode = upstream.BulkModeCollective
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	cache := tokencache.New(log, homeDir)
	cache.EvictAll(tenants.IDs())

	sessions, err := newSessionRegistry(staticCfg, log)
	if err != nil {
		return fmt.Errorf("constructing session registry: %w", err)
	}
	defer sessions.Close()

	d := dispatch.New(log, tenants, cache, tokencache.ClientCredentialsAcquirer{}, bulkMode)
	router := httpapi.NewRouter(log, d, sessions, tenants)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", staticCfg.Port),
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	serveErrs := make(chan error, 1)
	go func() {
		log.Info("gateway.listen", slog.Int("port", staticCfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrs:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
		log.Info("gateway.shutdown.start")
	}

	drain := time.Duration(staticCfg.ShutdownDrainSecs) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("gateway.shutdown.forced", slog.String("err", err.Error()))
	}

	cache.EvictAll(tenants.IDs())
	log.Info("gateway.shutdown.complete")
	return nil
}

func newSessionRegistry(cfg config.Static, log *slog.Logger) (session.Registry, error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemory(), nil
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("GATEWAY_SESSION_BACKEND=redis requires REDIS_URL")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	log.Info("session.backend.redis")
	return session.NewRedis(client), nil
}
