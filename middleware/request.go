package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/chatcore/sessiongate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is read for an incoming correlation id and echoed on the
// response.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestLogger attaches a request id, the client IP and a request-scoped
// logger to the context, then logs the finished request. The engine picks
// up the scoped logger through zerolog.Ctx.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.NewString()
			}
			ip := clientIP(r)
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logger.With().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger().WithContext(r.Context())
			ctx = sessiongate.WithRequestID(ctx, requestID)
			ctx = sessiongate.WithClientIP(ctx, ip)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			l := zerolog.Ctx(ctx)
			ev := l.Info()
			if rec.status >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			ev.Int("status", rec.status).
				Str("ip", ip).
				Dur("duration", time.Since(started)).
				Msg("http request")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
