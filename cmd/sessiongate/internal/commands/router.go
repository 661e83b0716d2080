package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/jwt"
	"github.com/chatcore/sessiongate/metrics/export/prometheus"
	"github.com/chatcore/sessiongate/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Pinger is a dependency checked by /healthz.
type Pinger func(ctx context.Context) error

type RouterDeps struct {
	Engine *sessiongate.Engine
	Tokens *jwt.Manager
	Logger zerolog.Logger

	// Checks are run by /healthz, keyed by dependency name.
	Checks map[string]Pinger
}

type meResponse struct {
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	Admin      bool      `json:"admin"`
	IssuedAt   time.Time `json:"issued_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Platform   string    `json:"platform,omitempty"`
}

// NewRouter mounts the protected API:
//
//	GET  /v1/me            Reload, RecordPlatform, Protect
//	POST /v1/logout        Reload, Protect
//	GET  /v1/admin/status  Reload, Protect, RequireActive, RequireAdmin
//	GET  /healthz
//	GET  /metrics
func NewRouter(deps RouterDeps) chi.Router {
	engine := deps.Engine

	extract := middleware.DefaultExtractor()
	if deps.Tokens != nil {
		extract = middleware.FirstOf(extract, middleware.FromBearer(deps.Tokens))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(deps.Logger))

	r.Get("/healthz", healthz(deps.Checks))
	r.Method(http.MethodGet, "/metrics", prometheus.Handler(engine, collectors.NewGoCollector()))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Reload(engine, extract))

		r.With(middleware.RecordPlatform(engine, ""), middleware.Protect(engine)).
			Get("/me", me)

		r.With(middleware.Protect(engine)).
			Post("/logout", logout(engine))

		r.With(middleware.Protect(engine), middleware.RequireActive(engine), middleware.RequireAdmin(engine)).
			Get("/admin/status", adminStatus(engine))
	})

	return r
}

func me(w http.ResponseWriter, r *http.Request) {
	p := sessiongate.PrincipalFromContext(r.Context())
	if p == nil {
		noPrincipal(w)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		UserID:     p.UserID,
		SessionID:  p.SessionID,
		Status:     p.Status.String(),
		Admin:      p.Admin,
		IssuedAt:   p.IssuedAt.UTC(),
		LastSeenAt: p.LastSeenAt.UTC(),
		Platform:   p.Platform,
	})
}

func logout(engine *sessiongate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := sessiongate.PrincipalFromContext(r.Context())
		if p == nil {
			noPrincipal(w)
			return
		}
		if err := engine.Logout(r.Context(), p.SessionID); err != nil {
			middleware.WriteRejection(w, err)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func adminStatus(engine *sessiongate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := engine.MetricsSnapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"auth_success":  snap.Counters[sessiongate.MetricAuthSuccess],
			"auth_rejected": snap.Counters[sessiongate.MetricAuthNoSession] + snap.Counters[sessiongate.MetricAuthUserDeleted] + snap.Counters[sessiongate.MetricAuthCredentialChanged],
			"unavailable":   snap.Counters[sessiongate.MetricAuthUnavailable] + snap.Counters[sessiongate.MetricSessionReloadFailure],
			"audit_dropped": engine.AuditDropped(),
		})
	}
}

func healthz(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("health check failed")
				result[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}
		writeJSON(w, status, result)
	}
}

// noPrincipal answers a handler mounted without Protect.
func noPrincipal(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, map[string]string{
		"status":  "fail",
		"message": "You are not authorized to access this resource",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
