package flows

import (
	"context"

	"github.com/chatcore/sessiongate/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Reload.SessionStore != nil && s.deps.Authenticate.Directory != nil
}

func (s Service) Reload(ctx context.Context, sessionID string) ReloadResult {
	return RunReload(ctx, sessionID, s.deps.Reload)
}

func (s Service) Authenticate(ctx context.Context, sess *session.Session) AuthenticateResult {
	return RunAuthenticate(ctx, sess, s.deps.Authenticate)
}

func (s Service) RecordPlatform(ctx context.Context, sessionID, tag string) PlatformResult {
	return RunRecordPlatform(ctx, sessionID, tag, s.deps.Platform)
}

func (s Service) Logout(ctx context.Context, sessionID string) error {
	return RunLogout(ctx, sessionID, s.deps.Logout)
}
