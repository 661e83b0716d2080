package flows

import (
	"context"
	"errors"
	"time"

	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/session"
)

// AuthenticateFailureKind classifies authentication failures for root-level
// mapping.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureNoSession
	AuthenticateFailureUserDeleted
	AuthenticateFailureCredentialChanged
	// AuthenticateFailureDirectory means the user directory could not be
	// reached or timed out.
	AuthenticateFailureDirectory
)

type UserLookup interface {
	LookupUser(ctx context.Context, userID string) (*directory.Snapshot, error)
}

type SessionToucher interface {
	Touch(ctx context.Context, sess *session.Session) error
}

// AuthenticateDeps captures authentication dependencies.
type AuthenticateDeps struct {
	Directory        UserLookup
	SessionStore     SessionToucher
	Now              func() time.Time
	DirectoryTimeout time.Duration
	TouchTimeout     time.Duration
	TouchEnabled     bool
}

// AuthenticateResult returns either the touched session and fresh user
// snapshot, or a classified failure. TouchErr reports a failed last-seen
// write on an otherwise successful result.
type AuthenticateResult struct {
	Failure  AuthenticateFailureKind
	Err      error
	Session  *session.Session
	User     *directory.Snapshot
	TouchErr error
}

// RunAuthenticate cross-checks sess against the user directory.
//
// Steps run in order and stop at the first failure: session presence, user
// lookup, credential staleness, last-seen update. The last-seen write is
// best-effort and never turns a success into a failure.
func RunAuthenticate(ctx context.Context, sess *session.Session, deps AuthenticateDeps) AuthenticateResult {
	if sess == nil {
		return AuthenticateResult{Failure: AuthenticateFailureNoSession}
	}

	lookupCtx, cancel := boundedContext(ctx, deps.DirectoryTimeout)
	user, err := deps.Directory.LookupUser(lookupCtx, sess.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return AuthenticateResult{Failure: AuthenticateFailureUserDeleted, Err: err}
		}
		return AuthenticateResult{Failure: AuthenticateFailureDirectory, Err: err}
	}
	if user == nil {
		return AuthenticateResult{Failure: AuthenticateFailureUserDeleted}
	}

	if CredentialChangedSince(user.CredentialChangedAt, sess.IssuedAt) {
		return AuthenticateResult{Failure: AuthenticateFailureCredentialChanged}
	}

	touched := sess.Clone()
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if ms := now().UnixMilli(); ms > touched.LastSeenAt {
		touched.LastSeenAt = ms
	}

	var touchErr error
	if deps.TouchEnabled && deps.SessionStore != nil {
		touchCtx, cancel := boundedContext(ctx, deps.TouchTimeout)
		touchErr = deps.SessionStore.Touch(touchCtx, touched)
		cancel()
	}

	return AuthenticateResult{
		Session:  touched,
		User:     user,
		TouchErr: touchErr,
	}
}

// CredentialChangedSince reports whether a credential rotated at changedAt
// invalidates a session issued at issuedAtMillis. Rotation in the same
// millisecond as issuance counts as a change. A zero changedAt means the
// credential was never rotated.
func CredentialChangedSince(changedAt time.Time, issuedAtMillis int64) bool {
	if changedAt.IsZero() {
		return false
	}
	return changedAt.UnixMilli() >= issuedAtMillis
}
