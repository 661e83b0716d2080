package sessiongate

import "context"

const gateLogout = "logout"

// Logout deletes the session record and its platform slot. Deleting a
// session that does not exist succeeds. A store failure returns an
// Unavailable *Rejection.
//
//	Performance: 2 pipelined Redis DELs.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !e.ready() {
		return notReady(gateLogout)
	}

	userID := ""
	if p := PrincipalFromContext(ctx); p != nil && p.SessionID == sessionID {
		userID = p.UserID
	}

	if err := e.flows.Logout(ctx, sessionID); err != nil {
		rej := unavailable(ReasonSessionStoreDown, gateLogout, err)
		e.logRejection(ctx, rej, sessionID)
		e.emitAudit(ctx, auditEventLogoutSession, false, userID, sessionID, rej, nil)
		return rej
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, userID, sessionID, nil, nil)
	return nil
}
