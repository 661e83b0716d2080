package sessiongate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated matches every rejection whose identity could not be
	// established or was revoked.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden matches every rejection of an established identity, and
	// every misuse rejection.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable matches every rejection caused by an unreachable or
	// timed-out dependency.
	ErrUnavailable = errors.New("dependency unavailable")
	// ErrMisuse matches gates that ran without a Principal in the context.
	ErrMisuse = errors.New("authorization gate misuse")
	// ErrEngineNotReady is wrapped by rejections from a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RejectionKind is the taxonomy every pipeline failure is classified into.
type RejectionKind uint8

const (
	// KindUnauthenticated: no session, deleted user, or stale credential.
	KindUnauthenticated RejectionKind = iota + 1
	// KindForbidden: identity established but status or privilege is insufficient.
	KindForbidden
	// KindUnavailable: a dependency could not be reached or timed out. Retryable.
	KindUnavailable
	// KindMisuse: a gate ran before authentication. Fails closed as Forbidden.
	KindMisuse
)

func (k RejectionKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	case KindMisuse:
		return "misuse"
	default:
		return "unknown"
	}
}

// Reason is a stable machine-readable rejection cause. Reasons are used as
// audit error codes and metric labels.
type Reason string

const (
	ReasonNoSession         Reason = "no_session"
	ReasonUserDeleted       Reason = "user_deleted"
	ReasonCredentialChanged Reason = "credential_changed"
	ReasonNotActive         Reason = "not_active"
	ReasonNotAuthorized     Reason = "not_authorized"
	ReasonNoPrincipal       Reason = "no_principal"
	ReasonGatePanic         Reason = "gate_panic"
	ReasonSessionStoreDown  Reason = "session_store_unavailable"
	ReasonSessionUnreadable Reason = "session_unreadable"
	ReasonUserDirectoryDown Reason = "user_directory_unavailable"
	ReasonEngineNotReady    Reason = "engine_not_ready"
	ReasonDependencyFault   Reason = "dependency_fault"
)

var reasonMessages = map[Reason]string{
	ReasonNoSession:         "Session not found, you are not allowed here!",
	ReasonUserDeleted:       "User has been deleted!! You can not log in",
	ReasonCredentialChanged: "User has changed password!! Log in again.",
	ReasonNotActive:         "You are not active",
	ReasonNotAuthorized:     "You are not authorized to access this resource",
	ReasonNoPrincipal:       "You are not authorized to access this resource",
	ReasonGatePanic:         "You are not authorized to access this resource",
	ReasonSessionStoreDown:  "Service temporarily unavailable, please retry",
	ReasonSessionUnreadable: "Service temporarily unavailable, please retry",
	ReasonUserDirectoryDown: "Service temporarily unavailable, please retry",
	ReasonEngineNotReady:    "You are not authorized to access this resource",
	ReasonDependencyFault:   "Service temporarily unavailable, please retry",
}

// Rejection is the only error type that leaves the pipeline.
//
// Gate names the stage that produced it ("reload", "authenticate",
// "is_active", "is_admin", ...). Err carries the underlying dependency
// error for Unavailable rejections and is nil otherwise.
type Rejection struct {
	Kind   RejectionKind
	Reason Reason
	Gate   string
	Err    error
}

func (r *Rejection) Error() string {
	if r == nil {
		return "<nil rejection>"
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", r.Kind, r.Reason, r.Gate, r.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Kind, r.Reason, r.Gate)
}

func (r *Rejection) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.Err
}

// Is matches the kind sentinels. A misuse rejection matches both ErrMisuse
// and ErrForbidden.
func (r *Rejection) Is(target error) bool {
	if r == nil {
		return false
	}
	switch target {
	case ErrUnauthenticated:
		return r.Kind == KindUnauthenticated
	case ErrForbidden:
		return r.Kind == KindForbidden || r.Kind == KindMisuse
	case ErrUnavailable:
		return r.Kind == KindUnavailable
	case ErrMisuse:
		return r.Kind == KindMisuse
	case ErrEngineNotReady:
		return r.Reason == ReasonEngineNotReady
	}
	return false
}

// Message returns the user-facing text for the rejection.
func (r *Rejection) Message() string {
	if r == nil {
		return ""
	}
	if msg, ok := reasonMessages[r.Reason]; ok {
		return msg
	}
	return "Request rejected"
}

// Retryable reports whether the caller may retry the same request later.
func (r *Rejection) Retryable() bool {
	return r != nil && r.Kind == KindUnavailable
}

// AsRejection extracts a *Rejection from err's chain.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) && r != nil {
		return r, true
	}
	return nil, false
}

func reject(kind RejectionKind, reason Reason, gate string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason, Gate: gate}
}

func unavailable(reason Reason, gate string, err error) *Rejection {
	return &Rejection{Kind: KindUnavailable, Reason: reason, Gate: gate, Err: err}
}

func notReady(gate string) *Rejection {
	return &Rejection{Kind: KindMisuse, Reason: ReasonEngineNotReady, Gate: gate, Err: ErrEngineNotReady}
}
