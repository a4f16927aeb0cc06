// Package httpapi wires both wire transports, the health probe, and the
// server identity endpoint onto one chi router (spec.md §4.4, §4.6).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
	"github.com/nareshsaladi2024/OICAgentOps/internal/dispatch"
	"github.com/nareshsaladi2024/OICAgentOps/internal/logctx"
	"github.com/nareshsaladi2024/OICAgentOps/internal/session"
	"github.com/nareshsaladi2024/OICAgentOps/internal/transport/sse"
	"github.com/nareshsaladi2024/OICAgentOps/internal/transport/streaming"
)

const version = "1.0.0"

// NewRouter assembles the gateway's HTTP surface: the legacy SSE
// transport at /sse and /messages, the preferred streaming transport at
// /stream, and two plain endpoints for health checks and server identity.
func NewRouter(log *slog.Logger, d *dispatch.Dispatcher, sessions session.Registry, tenants *config.Registry) http.Handler {
	log = logctx.New(log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	sseHandler := sse.New(log, d, sessions)
	sseHandler.Mount(r)

	streamHandler := streaming.New(log, d, sessions)
	r.Handle("/stream", streamHandler)

	r.Get("/health", handleHealth)
	r.Get("/", handleIdentity(tenants, d))

	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
				RequestID:  middleware.GetReqID(r.Context()),
				Method:     r.Method,
				RemoteAddr: r.RemoteAddr,
				Path:       r.URL.Path,
			})
			r = r.WithContext(ctx)

			start := time.Now()
			next.ServeHTTP(w, r)
			log.InfoContext(r.Context(), "http.request",
				slog.Duration("dur", time.Since(start)),
			)
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func handleIdentity(tenants *config.Registry, d *dispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		toolNames := make([]string, 0)
		for _, t := range d.ListTools().Tools {
			toolNames = append(toolNames, t.Name)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "oicagentops-gateway",
			"version": version,
			"tenants": tenants.IDs(),
			"tools":   toolNames,
		})
	}
}
