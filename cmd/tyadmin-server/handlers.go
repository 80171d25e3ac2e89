package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/GitHub-GodOne/ty-admin-sub001/metrics/export/prometheus"
	"github.com/GitHub-GodOne/ty-admin-sub001/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const permUpstreamRead = "admin:upstream:read"

type server struct {
	engine *tyadmin.Engine
	logger *slog.Logger
}

func newServer(engine *tyadmin.Engine, logger *slog.Logger) *server {
	return &server{engine: engine, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.withRequestContext)

	r.Route("/api/admin", func(r chi.Router) {
		authed := r.With(middleware.Authenticated(s.engine))
		authed.Post("/logout", s.logout)
		authed.Get("/session", s.session)

		r.With(middleware.Require(s.engine, permUpstreamRead)).
			Get("/upstream/token-status", s.upstreamStatus)
	})

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", prometheus.NewExporter(s.engine).Handler())

	return r
}

// withRequestContext tags every request with a request id and the client IP for audit
// events.
func (s *server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		ctx := tyadmin.WithRequestID(r.Context(), id)
		ctx = tyadmin.WithClientIP(ctx, host)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromContext(r.Context())
	if err := s.engine.Logout(r.Context(), token); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	SubjectID int64     `json:"subject_id"`
	Account   string    `json:"account"`
	Roles     []string  `json:"roles"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Remaining string    `json:"remaining"`
}

func (s *server) session(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromContext(r.Context())
	info, err := s.engine.Introspect(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SubjectID: info.SubjectID,
		Account:   info.Account,
		Roles:     info.Roles,
		IssuedAt:  info.IssuedAt.UTC(),
		ExpiresAt: info.ExpiresAt.UTC(),
		Remaining: info.Remaining.Round(time.Second).String(),
	})
}

type upstreamStatusResponse struct {
	Configured bool   `json:"configured"`
	Cached     bool   `json:"cached"`
	TTL        string `json:"ttl,omitempty"`
}

func (s *server) upstreamStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.UpstreamTokenStatus(r.Context())
	if err != nil {
		s.logger.Error("upstream token status failed", "error", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	resp := upstreamStatusResponse{Configured: st.Configured, Cached: st.Cached}
	if st.Cached {
		resp.TTL = st.TTL.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"cache": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cache":      "up",
		"latency_ms": st.CacheLatency.Milliseconds(),
	})
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := middleware.StatusFor(err)
	if code >= http.StatusInternalServerError && !errors.Is(err, tyadmin.ErrEngineNotReady) {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
