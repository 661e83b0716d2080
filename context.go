package sessiongate

import (
	"context"

	"github.com/chatcore/sessiongate/session"
)

type requestStateContextKey struct{}
type clientIPContextKey struct{}
type requestIDContextKey struct{}

// RequestState is what the pipeline has established about one request.
//
// States are values: each stage attaches a new state through a new context
// and never mutates one that is already attached. Principal is set only by
// Engine.Authenticate.
type RequestState struct {
	SessionID string
	Session   *session.Session
	Principal *Principal
}

// Absent reports whether the request has no loaded session.
func (s RequestState) Absent() bool {
	return s.Session == nil
}

func withState(ctx context.Context, state RequestState) context.Context {
	return context.WithValue(ctx, requestStateContextKey{}, state)
}

// StateFromContext returns the state attached by Reload or Authenticate.
// ok is false when no pipeline stage has run on ctx.
func StateFromContext(ctx context.Context) (RequestState, bool) {
	if ctx == nil {
		return RequestState{}, false
	}
	state, ok := ctx.Value(requestStateContextKey{}).(RequestState)
	return state, ok
}

// HasSessionState reports whether Reload has run on ctx, whether or not it
// found a session.
func HasSessionState(ctx context.Context) bool {
	_, ok := StateFromContext(ctx)
	return ok
}

// SessionFromContext returns a copy of the loaded session record, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	state, ok := StateFromContext(ctx)
	if !ok {
		return nil
	}
	return state.Session.Clone()
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	state, ok := StateFromContext(ctx)
	if !ok || state.Principal == nil {
		return nil
	}
	p := *state.Principal
	return &p
}

// WithClientIP attaches the caller's IP address to ctx for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestID attaches a request correlation id to ctx for audit records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
