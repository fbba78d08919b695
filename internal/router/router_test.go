package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/auth"
	"github.com/leadflow/backend/internal/ingest"
	"github.com/leadflow/backend/internal/lists"
	"github.com/leadflow/backend/internal/metrics"
	"github.com/leadflow/backend/internal/models"
	"github.com/leadflow/backend/internal/registry"
	"github.com/leadflow/backend/internal/uploads"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuth struct{}

func (stubAuth) Register(context.Context, string, string, string) (*auth.Admin, error) {
	return &auth.Admin{ID: uuid.New()}, nil
}
func (stubAuth) Login(context.Context, string, string) (string, error) { return "good", nil }
func (stubAuth) ValidateToken(_ context.Context, tok string) (uuid.UUID, error) {
	if tok != "good" {
		return uuid.Nil, apperr.ErrAuthRejected
	}
	return uuid.New(), nil
}

type stubAgents struct{}

func (stubAgents) CreateAgent(context.Context, registry.CreateAgentParams) (*models.Agent, error) {
	return &models.Agent{ID: uuid.New()}, nil
}
func (stubAgents) ListAgents(context.Context) ([]*models.Agent, error) {
	return []*models.Agent{}, nil
}

type stubLists struct{}

func (stubLists) Import(context.Context, *uploads.File, ingest.Kind) (*lists.ImportResult, error) {
	return nil, apperr.ErrNoAgentsAvailable
}
func (stubLists) ListTasks(context.Context) ([]*models.Task, error) { return []*models.Task{}, nil }
func (stubLists) UpdateTask(context.Context, uuid.UUID, *string, *string) (*models.Task, error) {
	return nil, apperr.ErrNotFound
}
func (stubLists) DeleteTask(context.Context, uuid.UUID) (*models.Task, error) {
	return nil, apperr.ErrNotFound
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestRouter(t *testing.T, db Pinger) http.Handler {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveUpload("csv", metrics.OutcomeStored)
	return New(Handlers{
		Auth:     auth.NewHandler(stubAuth{}, nil),
		Agents:   registry.NewHandler(stubAgents{}, nil),
		Lists:    lists.NewHandler(stubLists{}, store, 1<<20, m, nil),
		Uploads:  uploads.NewHandler(store, 1<<20, m, nil),
		Tokens:   stubAuth{},
		DB:       db,
		Gatherer: reg,
	})
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, nil)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/agents"},
		{http.MethodPost, "/api/agents"},
		{http.MethodGet, "/api/lists"},
		{http.MethodGet, "/api/lists/tasks"},
		{http.MethodPost, "/api/lists/upload"},
		{http.MethodPatch, "/api/lists/" + uuid.NewString()},
		{http.MethodDelete, "/api/lists/" + uuid.NewString()},
		{http.MethodGet, "/api/uploads"},
		{http.MethodPost, "/api/uploads"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}

			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("Authorization", "Bearer bad")
			rec = httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("bad token status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRouter_AuthenticatedRequests(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/agents", "", http.StatusOK},
		{http.MethodGet, "/api/lists", "", http.StatusOK},
		{http.MethodGet, "/api/lists/tasks", "", http.StatusOK},
		{http.MethodPatch, "/api/lists/" + uuid.NewString(), `{"status":"done"}`, http.StatusNotFound},
		{http.MethodDelete, "/api/lists/" + uuid.NewString(), "", http.StatusNotFound},
		{http.MethodPost, "/api/lists/upload", "", http.StatusBadRequest},
		{http.MethodGet, "/api/uploads", "", http.StatusOK},
		{http.MethodPut, "/api/agents", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer good")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t, stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "leads_uploads_total") {
		t.Errorf("metrics status = %d, body missing counters", rec.Code)
	}
}

func TestRouter_HealthzReportsDatabase(t *testing.T) {
	r := newTestRouter(t, stubPinger{err: errors.New("connection refused")})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
