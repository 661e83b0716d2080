package sessiongate

import (
	"context"
	"fmt"
	"time"

	"github.com/chatcore/sessiongate/internal/flows"
)

const gateAuthenticate = "authenticate"

// Authenticate validates the session attached by Reload against the user
// directory and attaches a Principal.
//
// Checks run in order and stop at the first failure:
//
//  1. no session state, or an absent one: Unauthenticated no_session,
//     without contacting the directory
//  2. user not found: Unauthenticated user_deleted
//  3. credential changed at or after issuance: Unauthenticated
//     credential_changed, whatever the account status or privilege
//
// A directory failure or timeout is Unavailable. On success the session's
// last-seen time is advanced and written back with a best-effort Touch; a
// failed Touch is logged and counted but does not fail the request.
//
// Every error is a *Rejection. On error the input context is returned
// unchanged and no Principal is attached.
//
//	Performance: 1 directory lookup + 1 Redis SET.
func (e *Engine) Authenticate(ctx context.Context) (out context.Context, p *Principal, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !e.ready() {
		return ctx, nil, notReady(gateAuthenticate)
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	state, _ := StateFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			rej := unavailable(ReasonDependencyFault, gateAuthenticate, fmt.Errorf("panic: %v", r))
			e.metricInc(MetricAuthUnavailable)
			e.log(ctx).Error().Interface("panic", r).Str("gate", gateAuthenticate).Msg("recovered panic in authentication")
			out, p, err = ctx, nil, rej
		}
	}()

	res := e.flows.Authenticate(ctx, state.Session)

	if rej := e.authenticateRejection(res); rej != nil {
		e.logRejection(ctx, rej, state.SessionID)
		userID := ""
		if state.Session != nil {
			userID = state.Session.UserID
		}
		e.emitAudit(ctx, auditEventAuthenticateRejected, false, userID, state.SessionID, rej, nil)
		return ctx, nil, rej
	}

	if res.TouchErr != nil {
		e.metricInc(MetricTouchFailure)
		e.log(ctx).Warn().
			Err(res.TouchErr).
			Str("session_id", state.SessionID).
			Msg("last-seen update failed")
		e.emitAudit(ctx, auditEventSessionTouchFailed, false, res.Session.UserID, state.SessionID, res.TouchErr, nil)
	}

	principal := newPrincipal(res.Session, res.User)
	next := withState(ctx, RequestState{
		SessionID: state.SessionID,
		Session:   res.Session,
		Principal: principal,
	})

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, auditEventAuthenticateSuccess, true, principal.UserID, principal.SessionID, nil, nil)

	cp := *principal
	return next, &cp, nil
}

func (e *Engine) authenticateRejection(res flows.AuthenticateResult) *Rejection {
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		return nil
	case flows.AuthenticateFailureNoSession:
		e.metricInc(MetricAuthNoSession)
		return reject(KindUnauthenticated, ReasonNoSession, gateAuthenticate)
	case flows.AuthenticateFailureUserDeleted:
		e.metricInc(MetricAuthUserDeleted)
		return reject(KindUnauthenticated, ReasonUserDeleted, gateAuthenticate)
	case flows.AuthenticateFailureCredentialChanged:
		e.metricInc(MetricAuthCredentialChanged)
		return reject(KindUnauthenticated, ReasonCredentialChanged, gateAuthenticate)
	default:
		e.metricInc(MetricAuthUnavailable)
		return unavailable(ReasonUserDirectoryDown, gateAuthenticate, res.Err)
	}
}

// AuthenticateSession runs Reload and Authenticate for sessionID.
func (e *Engine) AuthenticateSession(ctx context.Context, sessionID string) (context.Context, *Principal, error) {
	next, err := e.Reload(ctx, sessionID)
	if err != nil {
		return next, nil, err
	}
	return e.Authenticate(next)
}
