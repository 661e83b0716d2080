package flows

import (
	"context"
	"errors"
	"time"

	"github.com/chatcore/sessiongate/session"
)

// ReloadFailureKind classifies reload failures for root-level mapping.
type ReloadFailureKind int

const (
	ReloadFailureNone ReloadFailureKind = iota
	// ReloadFailureStore means the store could not be reached or timed out.
	ReloadFailureStore
	// ReloadFailureCorrupt means a record exists but could not be decoded.
	ReloadFailureCorrupt
)

type ReloadSessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
}

// ReloadDeps captures session reload dependencies.
type ReloadDeps struct {
	SessionStore  ReloadSessionStore
	LookupTimeout time.Duration
}

// ReloadResult is either a loaded session, an explicit absence, or a
// classified failure. Absent and Session are mutually exclusive.
type ReloadResult struct {
	Session *session.Session
	Absent  bool
	Failure ReloadFailureKind
	Err     error
}

// RunReload fetches the session record for sessionID. An empty identifier and
// a missing record are both reported as Absent, never as a failure.
func RunReload(ctx context.Context, sessionID string, deps ReloadDeps) ReloadResult {
	if sessionID == "" {
		return ReloadResult{Absent: true}
	}

	lookupCtx, cancel := boundedContext(ctx, deps.LookupTimeout)
	defer cancel()

	sess, err := deps.SessionStore.Get(lookupCtx, sessionID)
	switch {
	case err == nil && sess != nil:
		return ReloadResult{Session: sess}
	case err == nil, errors.Is(err, session.ErrNotFound):
		return ReloadResult{Absent: true}
	case errors.Is(err, session.ErrCorrupt):
		return ReloadResult{Failure: ReloadFailureCorrupt, Err: err}
	default:
		return ReloadResult{Failure: ReloadFailureStore, Err: err}
	}
}
