package sessiongate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/session"
	"github.com/redis/go-redis/v9"
)

var testT0 = time.UnixMilli(1_700_000_000_000).UTC()

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	return mr, client
}

type gateFixture struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	store  *session.Store
	dir    *directory.Memory
	now    time.Time
}

func (f *gateFixture) saveSession(t testing.TB, sess *session.Session) {
	t.Helper()
	if err := f.store.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func (f *gateFixture) storedSession(t *testing.T, sessionID string) *session.Session {
	t.Helper()
	sess, err := f.store.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return sess
}

func newGateFixture(t testing.TB, mutate func(*Config), users ...directory.Snapshot) (*gateFixture, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	cfg := DefaultConfig()
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	f := &gateFixture{
		mr:    mr,
		rdb:   rdb,
		store: session.NewStore(rdb, cfg.Session.RedisPrefix),
		dir:   directory.NewMemory(users...),
		now:   testT0.Add(time.Hour),
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(f.dir).
		WithClock(func() time.Time { return f.now }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f.engine = engine

	return f, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func activeUser(id string) directory.Snapshot {
	return directory.Snapshot{
		UserID:              id,
		CredentialHash:      "$argon2id$v=19$hash",
		CredentialChangedAt: testT0.Add(-5 * time.Millisecond),
		Status:              directory.StatusActive,
	}
}

func sessionAt(sessionID, userID string, issued time.Time) *session.Session {
	return &session.Session{
		SessionID:  sessionID,
		UserID:     userID,
		IssuedAt:   issued.UnixMilli(),
		LastSeenAt: issued.UnixMilli(),
		Platform:   "web",
	}
}

// blockingStore blocks Get until the context is done, like a Redis server
// that stopped answering.
type blockingStore struct {
	SessionStore
}

func (blockingStore) Get(ctx context.Context, _ string) (*session.Session, error) {
	<-ctx.Done()
	return nil, errors.Join(session.ErrRedisUnavailable, ctx.Err())
}

// failingPlatformStore delegates everything but SetPlatform.
type failingPlatformStore struct {
	SessionStore
	panic bool
	calls int
}

func (s *failingPlatformStore) SetPlatform(context.Context, string, string, time.Duration) error {
	s.calls++
	if s.panic {
		panic("platform slot exploded")
	}
	return errors.New("platform slot write refused")
}

func mustRejection(t *testing.T, err error, kind RejectionKind, reason Reason) *Rejection {
	t.Helper()
	rej, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected *Rejection, got %T (%v)", err, err)
	}
	if rej.Kind != kind || rej.Reason != reason {
		t.Fatalf("expected %s/%s, got %s/%s", kind, reason, rej.Kind, rej.Reason)
	}
	return rej
}
