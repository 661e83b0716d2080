package middleware

import (
	"net/http"
	"strings"

	"github.com/chatcore/sessiongate/jwt"
)

// Extractor pulls a session id out of a request. It returns "" when the
// request carries none, which Reload treats as an absent session.
type Extractor func(r *http.Request) string

// FromCookie reads the session id from the named cookie.
func FromCookie(name string) Extractor {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

// FromHeader reads the session id verbatim from the named header.
func FromHeader(name string) Extractor {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// FromBearer reads a "Bearer <jwt>" Authorization header and returns the
// token's sid claim. A malformed, expired or badly signed token yields "":
// the request continues as unauthenticated rather than failing here.
func FromBearer(m *jwt.Manager) Extractor {
	return func(r *http.Request) string {
		if m == nil {
			return ""
		}
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return ""
		}
		sid, err := m.SessionID(token)
		if err != nil {
			return ""
		}
		return sid
	}
}

// FirstOf tries each extractor in order and returns the first non-empty id.
func FirstOf(extractors ...Extractor) Extractor {
	return func(r *http.Request) string {
		for _, ex := range extractors {
			if ex == nil {
				continue
			}
			if sid := ex(r); sid != "" {
				return sid
			}
		}
		return ""
	}
}

// DefaultExtractor checks the "sid" cookie, then the X-Session-ID header.
func DefaultExtractor() Extractor {
	return FirstOf(FromCookie("sid"), FromHeader("X-Session-ID"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
