package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chatcore/sessiongate/session"
)

type SessionCmd struct {
	Inspect SessionInspectCmd `cmd:"" help:"Print a stored session as JSON."`
	Revoke  SessionRevokeCmd  `cmd:"" help:"Delete a stored session and its platform slot."`
}

type SessionInspectCmd struct {
	SessionID string     `arg:"" help:"Session id."`
	Redis     RedisFlags `embed:"" prefix:"redis-"`
}

type SessionRevokeCmd struct {
	SessionID string     `arg:"" help:"Session id."`
	Redis     RedisFlags `embed:"" prefix:"redis-"`
}

type inspectOutput struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	SchemaVersion uint8     `json:"schema_version"`
	IssuedAt      time.Time `json:"issued_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	Platform      string    `json:"platform,omitempty"`
	PlatformSlot  string    `json:"platform_slot,omitempty"`
	TTL           string    `json:"ttl"`
}

func (c *SessionInspectCmd) Run(ctx context.Context) error {
	rdb := c.Redis.Client()
	defer func() { _ = rdb.Close() }()
	return inspectSession(ctx, session.NewStore(rdb, c.Redis.Prefix), c.SessionID, os.Stdout)
}

func (c *SessionRevokeCmd) Run(ctx context.Context) error {
	rdb := c.Redis.Client()
	defer func() { _ = rdb.Close() }()
	return revokeSession(ctx, session.NewStore(rdb, c.Redis.Prefix), c.SessionID, os.Stdout)
}

func inspectSession(ctx context.Context, store *session.Store, sessionID string, out io.Writer) error {
	sess, err := store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session %q: %w", sessionID, err)
	}

	result := inspectOutput{
		SessionID:     sess.SessionID,
		UserID:        sess.UserID,
		SchemaVersion: sess.SchemaVersion,
		IssuedAt:      sess.IssuedTime().UTC(),
		LastSeenAt:    sess.LastSeenTime().UTC(),
		Platform:      sess.Platform,
	}

	switch ttl, err := store.TTL(ctx, sessionID); {
	case err != nil:
		return fmt.Errorf("session %q ttl: %w", sessionID, err)
	case ttl < 0:
		result.TTL = "none"
	default:
		result.TTL = ttl.Round(time.Second).String()
	}

	slot, err := store.Platform(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("session %q platform: %w", sessionID, err)
	}
	result.PlatformSlot = slot

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func revokeSession(ctx context.Context, store *session.Store, sessionID string, out io.Writer) error {
	if err := store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke %q: %w", sessionID, err)
	}
	_, err := fmt.Fprintf(out, "revoked %s\n", sessionID)
	return err
}
