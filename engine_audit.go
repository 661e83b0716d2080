package sessiongate

import (
	"context"
	"errors"
	"time"

	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/session"
)

const (
	auditEventAuthenticateSuccess  = "authenticate_success"
	auditEventAuthenticateRejected = "authenticate_rejected"
	auditEventAuthorizeRejected    = "authorize_rejected"
	auditEventGateMisuse           = "gate_misuse"
	auditEventSessionTouchFailed   = "session_touch_failed"
	auditEventPlatformFailed       = "platform_record_failed"
	auditEventLogoutSession        = "logout_session"
)

const (
	auditErrTimeout     = "timeout"
	auditErrUnavailable = "backend_unavailable"
	auditErrInternal    = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	e.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	})
}

// auditErrorCode maps err to a stable code. Rejections use their reason so
// audit consumers see the same vocabulary as metrics and logs.
func auditErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if rej, ok := AsRejection(err); ok {
		return string(rej.Reason)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return auditErrTimeout
	case errors.Is(err, session.ErrRedisUnavailable), errors.Is(err, directory.ErrUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
