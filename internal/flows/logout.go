package flows

import (
	"context"
	"time"
)

type LogoutSessionStore interface {
	Delete(ctx context.Context, sessionID string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	SessionStore LogoutSessionStore
	Timeout      time.Duration
}

// RunLogout deletes the session record. An empty id is a no-op.
func RunLogout(ctx context.Context, sessionID string, deps LogoutDeps) error {
	if sessionID == "" {
		return nil
	}
	deleteCtx, cancel := boundedContext(ctx, deps.Timeout)
	defer cancel()
	return deps.SessionStore.Delete(deleteCtx, sessionID)
}
