package sessiongate

import (
	"context"
	"io"
	"time"

	"github.com/chatcore/sessiongate/directory"
	internalaudit "github.com/chatcore/sessiongate/internal/audit"
	"github.com/chatcore/sessiongate/session"
	"github.com/rs/zerolog"
)

// AccountStatus is the lifecycle state of a user account as reported by the
// user directory.
type AccountStatus = directory.Status

const (
	StatusUnverified  = directory.StatusUnverified
	StatusActive      = directory.StatusActive
	StatusDeactivated = directory.StatusDeactivated
	StatusBanned      = directory.StatusBanned
)

// UserSnapshot is the credential snapshot returned by a UserDirectory.
type UserSnapshot = directory.Snapshot

// Principal is the validated identity of one request. It is built only
// after the session was found, the user still exists, and the user's
// credential did not change at or after session issuance. It never carries
// the credential hash.
type Principal struct {
	UserID    string
	SessionID string

	Status AccountStatus
	Admin  bool

	CredentialChangedAt time.Time
	IssuedAt            time.Time
	LastSeenAt          time.Time

	Platform string
}

// Active reports whether the account status is active.
func (p *Principal) Active() bool {
	return p != nil && p.Status == StatusActive
}

func newPrincipal(sess *session.Session, user *directory.Snapshot) *Principal {
	return &Principal{
		UserID:              sess.UserID,
		SessionID:           sess.SessionID,
		Status:              user.Status,
		Admin:               user.Admin,
		CredentialChangedAt: user.CredentialChangedAt,
		IssuedAt:            sess.IssuedTime(),
		LastSeenAt:          sess.LastSeenTime(),
		Platform:            sess.Platform,
	}
}

// UserDirectory looks users up by identifier. Implementations return
// directory.ErrNotFound for unknown users and wrap every other failure,
// including context expiry, so that it is not mistaken for "not found".
//
// directory.Postgres and directory.Memory implement it.
type UserDirectory interface {
	LookupUser(ctx context.Context, userID string) (*UserSnapshot, error)
}

// SessionStore is the session persistence capability the engine needs.
// session.Store implements it on Redis.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Touch(ctx context.Context, sess *session.Session) error
	Delete(ctx context.Context, sessionID string) error
	SetPlatform(ctx context.Context, sessionID, platform string, ttl time.Duration) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based AuditSink, mostly for tests.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes JSON-encoded events to an io.Writer, one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZerologSink writes events through a zerolog.Logger.
type ZerologSink = internalaudit.ZerologSink

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZerologSink creates a ZerologSink that logs through logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return internalaudit.NewZerologSink(logger)
}
