package sessiongate

import (
	"context"
	"fmt"
)

// RecordPlatform stores a caller-declared platform tag for downstream
// notification logic. With a session attached to ctx the tag goes to that
// session's slot; otherwise to the process-wide slot.
//
// It never fails and never panics: write errors, timeouts and store panics
// are logged at warn level and counted in MetricPlatformFailure, and the
// request continues as if the write had succeeded.
func (e *Engine) RecordPlatform(ctx context.Context, tag string) {
	if e == nil || !e.config.Platform.Enabled {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			e.platformFailed(ctx, "", tag, fmt.Errorf("panic: %v", r))
		}
	}()

	sessionID := ""
	if sess := SessionFromContext(ctx); sess != nil {
		sessionID = sess.SessionID
	}

	res := e.flows.RecordPlatform(ctx, sessionID, tag)
	if res.Err != nil {
		e.platformFailed(ctx, sessionID, res.Tag, res.Err)
		return
	}

	e.metricInc(MetricPlatformRecorded)
	e.log(ctx).Debug().
		Str("platform", res.Tag).
		Bool("session_scope", res.SessionScope).
		Bool("defaulted", res.Defaulted).
		Msg("platform recorded")
}

func (e *Engine) platformFailed(ctx context.Context, sessionID, tag string, err error) {
	e.metricInc(MetricPlatformFailure)
	e.log(ctx).Warn().
		Err(err).
		Str("platform", tag).
		Str("session_id", sessionID).
		Msg("platform tag not recorded")
	e.emitAudit(ctx, auditEventPlatformFailed, false, "", sessionID, err, func() map[string]string {
		return map[string]string{"platform": tag}
	})
}
