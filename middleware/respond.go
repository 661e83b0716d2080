package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chatcore/sessiongate"
)

// RetryAfterSeconds is sent with every 503 answer.
const RetryAfterSeconds = 1

type failureBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// StatusFor maps a pipeline error to its HTTP status: 401 for
// Unauthenticated, 403 for Forbidden and Misuse, 503 for Unavailable.
// Errors that are not a *sessiongate.Rejection map to 500.
func StatusFor(err error) int {
	rej, ok := sessiongate.AsRejection(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch rej.Kind {
	case sessiongate.KindUnauthenticated:
		return http.StatusUnauthorized
	case sessiongate.KindForbidden, sessiongate.KindMisuse:
		return http.StatusForbidden
	case sessiongate.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteRejection answers with the status for err and a JSON body
// {"status":"fail","message":...}. Misuse answers carry the generic
// forbidden text so the wiring mistake is not disclosed to clients.
func WriteRejection(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := failureBody{Status: "fail", Message: http.StatusText(status)}

	if rej, ok := sessiongate.AsRejection(err); ok {
		switch rej.Kind {
		case sessiongate.KindMisuse:
			body.Message = "You are not authorized to access this resource"
		default:
			body.Message = rej.Message()
			body.Reason = string(rej.Reason)
		}
		if rej.Retryable() {
			w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
		}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
