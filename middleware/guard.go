package middleware

import (
	"net/http"

	"github.com/chatcore/sessiongate"
)

// Reload loads the session named by extract and attaches it to the request
// context. A missing id or record is not rejected here; Protect decides.
// A session store failure is answered with 503.
func Reload(engine *sessiongate.Engine, extract Extractor) func(http.Handler) http.Handler {
	if extract == nil {
		extract = DefaultExtractor()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := engine.Reload(r.Context(), extract(r))
			if err != nil {
				WriteRejection(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Protect authenticates the reloaded session and attaches the Principal.
// It must run after Reload.
func Protect(engine *sessiongate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _, err := engine.Authenticate(r.Context())
			if err != nil {
				WriteRejection(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require runs gates in order against the authenticated request. It must
// run after Protect; without a Principal every built-in gate answers 403.
func Require(engine *sessiongate.Engine, gates ...sessiongate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := engine.Authorize(r.Context(), gates...); err != nil {
				WriteRejection(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireActive(engine *sessiongate.Engine) func(http.Handler) http.Handler {
	return Require(engine, sessiongate.IsActive)
}

func RequireAdmin(engine *sessiongate.Engine) func(http.Handler) http.Handler {
	return Require(engine, sessiongate.IsAdmin)
}

// RecordPlatform records the platform tag from the named query parameter,
// "platform" when param is empty. It never rejects a request.
func RecordPlatform(engine *sessiongate.Engine, param string) func(http.Handler) http.Handler {
	if param == "" {
		param = "platform"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			engine.RecordPlatform(r.Context(), r.URL.Query().Get(param))
			next.ServeHTTP(w, r)
		})
	}
}
