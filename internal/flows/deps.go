package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Reload       ReloadDeps
	Authenticate AuthenticateDeps
	Platform     PlatformDeps
	Logout       LogoutDeps
}

// boundedContext derives a child context with timeout d. A non-positive d
// returns ctx unchanged, still honouring whatever deadline ctx carries.
func boundedContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
