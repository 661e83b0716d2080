package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps every connectivity failure, including context
// deadline and cancellation, so callers can tell "retry later" apart from
// "no such session".
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrCorrupt is returned when a stored payload cannot be decoded.
var ErrCorrupt = errors.New("session record corrupt")

// Store is the Redis-backed session store.
//
// Keys:
//
//	<prefix>:s:<sid>     session record (binary, see Encode)
//	<prefix>:p:<sid>     session-scoped platform slot
//	<prefix>:platform    process-wide platform slot
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store using client. An empty prefix defaults to "sg".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "sg"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) platformKey(sessionID string) string {
	if sessionID == "" {
		return s.prefix + ":platform"
	}
	return s.prefix + ":p:" + sessionID
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
}

// Save writes sess with the given TTL, replacing any existing record.
// Session creation belongs to the login flow; Save exists for that caller
// and for tooling.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("session id required")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be > 0")
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get loads the record for sessionID.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID
	return sess, nil
}

// Touch rewrites an existing record in place, keeping its remaining TTL.
//
// The write uses SET XX KEEPTTL: a record that expired or was deleted after
// it was read is not resurrected, and the TTL is never extended. In that case
// Touch returns ErrNotFound. Concurrent touches of the same session are last
// write wins.
//
//	Performance: 1 Redis SET.
func (s *Store) Touch(ctx context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("session id required")
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	err = s.redis.SetArgs(ctx, s.key(sess.SessionID), data, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return unavailable(err)
	}
	return nil
}

// Delete removes the record and its platform slot. Deleting a missing
// session is not an error.
//
//	Performance: 2 pipelined Redis DELs.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	// Two single-key DELs instead of one multi-key DEL so the pipeline also
	// works against a cluster client.
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.Del(ctx, s.platformKey(sessionID))
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// SetPlatform records a platform tag. A non-empty sessionID writes the
// session-scoped slot; an empty one writes the process-wide slot. A ttl of
// zero means no expiry.
func (s *Store) SetPlatform(ctx context.Context, sessionID, platform string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.platformKey(sessionID), platform, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Platform reads back a slot written by SetPlatform.
func (s *Store) Platform(ctx context.Context, sessionID string) (string, error) {
	v, err := s.redis.Get(ctx, s.platformKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", unavailable(err)
	}
	return v, nil
}

// TTL returns the remaining lifetime of a session record.
func (s *Store) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(sessionID)).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	// go-redis passes PTTL's -2 (missing key) and -1 (no expiry) through
	// unscaled.
	if ttl == -2 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), unavailable(err)
	}
	return time.Since(start), nil
}
