package directory

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no user exists for an identifier.
var ErrNotFound = errors.New("user not found")

// ErrUnavailable wraps every failure to reach or query the backing store.
var ErrUnavailable = errors.New("user directory unavailable")

// Status is the lifecycle state of an account.
type Status uint8

const (
	// StatusUnverified is the state of a freshly registered account.
	StatusUnverified Status = iota
	StatusActive
	StatusDeactivated
	StatusBanned
)

var statusNames = [...]string{
	StatusUnverified:  "unverified",
	StatusActive:      "active",
	StatusDeactivated: "deactivated",
	StatusBanned:      "banned",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus maps a stored status string to a Status. Unrecognised values
// map to StatusUnverified, the default for new accounts, which no gate lets
// through as active.
func ParseStatus(v string) Status {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active":
		return StatusActive
	case "deactivated":
		return StatusDeactivated
	case "banned":
		return StatusBanned
	default:
		return StatusUnverified
	}
}

// Snapshot is a point-in-time read of a user record.
type Snapshot struct {
	UserID string

	// CredentialHash is carried for completeness of the record. It must not
	// be copied into request-scoped identities.
	CredentialHash string

	// CredentialChangedAt is the last credential rotation. The zero value
	// means the credential was never changed.
	CredentialChangedAt time.Time

	Status Status
	Admin  bool
}
