package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadflow/backend/internal/auth"
	"github.com/leadflow/backend/internal/lists"
	"github.com/leadflow/backend/internal/middleware"
	"github.com/leadflow/backend/internal/registry"
	"github.com/leadflow/backend/internal/uploads"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth     *auth.Handler
	Agents   *registry.Handler
	Lists    *lists.Handler
	Uploads  *uploads.Handler
	Tokens   middleware.TokenValidator
	DB       Pinger
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// New returns an http.Handler that serves the API under /api plus the
// unauthenticated /healthz and /metrics endpoints.
func New(h Handlers) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(h.Tokens)
	protected := func(fn http.HandlerFunc) http.Handler {
		return requireAuth(fn)
	}

	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)

	mux.Handle("POST /api/agents", protected(h.Agents.CreateAgent))
	mux.Handle("GET /api/agents", protected(h.Agents.ListAgents))

	mux.Handle("POST /api/lists/upload", protected(h.Lists.Upload))
	mux.Handle("GET /api/lists", protected(h.Lists.ListTasks))
	mux.Handle("GET /api/lists/tasks", protected(h.Lists.ListTasks))
	mux.Handle("PATCH /api/lists/{id}", protected(h.Lists.UpdateTask))
	mux.Handle("DELETE /api/lists/{id}", protected(h.Lists.DeleteTask))

	mux.Handle("POST /api/uploads", protected(h.Uploads.Upload))
	mux.Handle("GET /api/uploads", protected(h.Uploads.List))

	mux.HandleFunc("GET /healthz", healthz(h.DB))
	if h.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.Logging(h.Logger)(mux)
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "database unavailable"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": body})
	}
}
