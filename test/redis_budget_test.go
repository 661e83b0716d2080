//go:build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type budgetFixture struct {
	engine  *sessiongate.Engine
	store   *session.Store
	counter *cmdCounter
}

func newBudgetFixture(t *testing.T, rdb redis.UniversalClient) *budgetFixture {
	t.Helper()

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	t0 := issuedNow()
	dir := directory.NewMemory(directory.Snapshot{
		UserID:              "u1",
		CredentialChangedAt: t0.Add(-time.Minute),
		Status:              directory.StatusActive,
	})

	engine, err := sessiongate.New().
		WithRedis(rdb).
		WithUserDirectory(dir).
		WithLogger(zerolog.Nop()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	f := &budgetFixture{
		engine:  engine,
		store:   session.NewStore(rdb, "sg"),
		counter: counter,
	}
	err = f.store.Save(context.Background(), &session.Session{
		SessionID:  "sid-1",
		UserID:     "u1",
		IssuedAt:   t0.UnixMilli(),
		LastSeenAt: t0.UnixMilli(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Warm the pool so dial-time handshakes are not counted.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	counter.Reset()
	return f
}

func (f *budgetFixture) expect(t *testing.T, op string, commands, pipelines int64) {
	t.Helper()
	if got := f.counter.Commands(); got != commands {
		t.Errorf("%s: expected %d Redis commands, got %d", op, commands, got)
	}
	if got := f.counter.Pipelines(); got != pipelines {
		t.Errorf("%s: expected %d pipelines, got %d", op, pipelines, got)
	}
	f.counter.Reset()
}

func TestRedisBudgetReload(t *testing.T) {
	for _, mode := range redisModes() {
		t.Run(mode.name, func(t *testing.T) {
			f := newBudgetFixture(t, mode.setup(t))

			if _, err := f.engine.Reload(context.Background(), "sid-1"); err != nil {
				t.Fatalf("Reload failed: %v", err)
			}
			f.expect(t, "Reload", 1, 0)

			if _, err := f.engine.Reload(context.Background(), ""); err != nil {
				t.Fatalf("Reload failed: %v", err)
			}
			f.expect(t, "Reload without id", 0, 0)
		})
	}
}

func TestRedisBudgetAuthenticate(t *testing.T) {
	for _, mode := range redisModes() {
		t.Run(mode.name, func(t *testing.T) {
			f := newBudgetFixture(t, mode.setup(t))

			ctx, err := f.engine.Reload(context.Background(), "sid-1")
			if err != nil {
				t.Fatalf("Reload failed: %v", err)
			}
			f.counter.Reset()

			if _, _, err := f.engine.Authenticate(ctx); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			// The last-seen touch is the only write.
			f.expect(t, "Authenticate", 1, 0)

			absent, err := f.engine.Reload(context.Background(), "")
			if err != nil {
				t.Fatalf("Reload failed: %v", err)
			}
			if _, _, err := f.engine.Authenticate(absent); err == nil {
				t.Fatal("expected no_session rejection")
			}
			f.expect(t, "Authenticate without session", 0, 0)
		})
	}
}

func TestRedisBudgetRecordPlatform(t *testing.T) {
	f := newBudgetFixture(t, redisModes()[0].setup(t))

	ctx, err := f.engine.Reload(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	f.counter.Reset()

	f.engine.RecordPlatform(ctx, "ios")
	f.expect(t, "RecordPlatform", 1, 0)
}

func TestRedisBudgetLogout(t *testing.T) {
	for _, mode := range redisModes() {
		t.Run(mode.name, func(t *testing.T) {
			f := newBudgetFixture(t, mode.setup(t))

			if err := f.engine.Logout(context.Background(), "sid-1"); err != nil {
				t.Fatalf("Logout failed: %v", err)
			}
			f.expect(t, "Logout", 2, 1)

			if _, err := f.store.Get(context.Background(), "sid-1"); err != session.ErrNotFound {
				t.Fatalf("expected ErrNotFound after logout, got %v", err)
			}
		})
	}
}
