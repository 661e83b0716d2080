package session

import "time"

// Session is the record kept in the session store for one client session.
//
// A stored Session always carries the UserID that was valid when it was
// issued. Whether that user still exists, or has rotated credentials since,
// is decided at validation time by the engine, not here.
type Session struct {
	SchemaVersion uint8

	SessionID string
	UserID    string

	// IssuedAt and LastSeenAt are unix milliseconds.
	IssuedAt   int64
	LastSeenAt int64

	Platform string
}

// IssuedTime returns IssuedAt as a time.Time.
func (s *Session) IssuedTime() time.Time {
	return time.UnixMilli(s.IssuedAt)
}

// LastSeenTime returns LastSeenAt as a time.Time.
func (s *Session) LastSeenTime() time.Time {
	return time.UnixMilli(s.LastSeenAt)
}

// Clone returns a shallow copy. Session has no reference fields, so the copy
// is fully independent.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
