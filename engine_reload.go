package sessiongate

import (
	"context"

	"github.com/chatcore/sessiongate/internal/flows"
)

const gateReload = "reload"

// Reload loads the session record for sessionID and attaches it to the
// returned context.
//
// An empty sessionID and a missing record both attach an absent state and
// return a nil error; Authenticate later turns that into a no_session
// rejection. Only a store failure or an unreadable record is an error, and
// it is always an Unavailable *Rejection. On error the input context is
// returned unchanged.
//
//	Performance: 1 Redis GET, none for an empty sessionID.
func (e *Engine) Reload(ctx context.Context, sessionID string) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !e.ready() {
		return ctx, notReady(gateReload)
	}

	res := e.flows.Reload(ctx, sessionID)

	var rej *Rejection
	switch res.Failure {
	case flows.ReloadFailureCorrupt:
		rej = unavailable(ReasonSessionUnreadable, gateReload, res.Err)
	case flows.ReloadFailureStore:
		rej = unavailable(ReasonSessionStoreDown, gateReload, res.Err)
	}
	if rej != nil {
		e.metricInc(MetricSessionReloadFailure)
		e.logRejection(ctx, rej, sessionID)
		return ctx, rej
	}

	if res.Absent {
		e.metricInc(MetricSessionAbsent)
		return withState(ctx, RequestState{SessionID: sessionID}), nil
	}

	e.metricInc(MetricSessionReloaded)
	return withState(ctx, RequestState{SessionID: sessionID, Session: res.Session}), nil
}
