//go:build integration

package test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/middleware"
	"github.com/chatcore/sessiongate/session"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisMode describes which Redis backend a suite runs against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes always includes miniredis. A real standalone Redis is added
// when REDIS_ADDR is set.
func redisModes() []redisMode {
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			t.Helper()
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() {
					rdb.FlushDB(context.Background())
					_ = rdb.Close()
				})
				return rdb
			},
		})
	}
	return modes
}

// cmdCounter is a go-redis hook counting commands and pipeline round-trips.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// countingDirectory records how often the directory is consulted.
type countingDirectory struct {
	*directory.Memory
	lookups atomic.Int64
}

func (d *countingDirectory) LookupUser(ctx context.Context, userID string) (*directory.Snapshot, error) {
	d.lookups.Add(1)
	return d.Memory.LookupUser(ctx, userID)
}

// stack is an HTTP server wired like cmd/sessiongate serve.
type stack struct {
	server *httptest.Server
	engine *sessiongate.Engine
	store  *session.Store
	dir    *countingDirectory
	audit  *sessiongate.ChannelSink

	// reachedNext counts requests that passed RecordPlatform.
	reachedNext atomic.Int64
}

type stackOptions struct {
	store  sessiongate.SessionStore
	config func(*sessiongate.Config)
}

func newStack(t *testing.T, rdb redis.UniversalClient, opts stackOptions, users ...directory.Snapshot) *stack {
	t.Helper()

	cfg := sessiongate.DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	if opts.config != nil {
		opts.config(&cfg)
	}

	s := &stack{
		store: session.NewStore(rdb, cfg.Session.RedisPrefix),
		dir:   &countingDirectory{Memory: directory.NewMemory(users...)},
		audit: sessiongate.NewChannelSink(256),
	}

	b := sessiongate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(s.dir).
		WithAuditSink(s.audit).
		WithLogger(zerolog.New(zerolog.NewTestWriter(t)))
	if opts.store != nil {
		b = b.WithSessionStore(opts.store)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	s.engine = engine

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(zerolog.Nop()))
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Reload(engine, nil))
		r.With(middleware.RecordPlatform(engine, ""), s.countNext, middleware.Protect(engine)).
			Get("/me", ok)
		r.With(middleware.Protect(engine), middleware.RequireActive(engine)).
			Get("/active", ok)
		r.With(middleware.Protect(engine), middleware.RequireAdmin(engine)).
			Get("/admin", ok)
	})
	s.server = httptest.NewServer(r)

	t.Cleanup(func() {
		s.server.Close()
		engine.Close()
	})
	return s
}

func (s *stack) countNext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.reachedNext.Add(1)
		next.ServeHTTP(w, r)
	})
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *stack) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := s.server.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *stack) login(t *testing.T, sid, uid string, issued time.Time) {
	t.Helper()
	err := s.store.Save(context.Background(), &session.Session{
		SessionID:  sid,
		UserID:     uid,
		IssuedAt:   issued.UnixMilli(),
		LastSeenAt: issued.UnixMilli(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

// drainAudit returns the event types emitted so far.
func (s *stack) drainAudit() []string {
	s.engine.Close()
	var types []string
	for {
		select {
		case ev := <-s.audit.Events():
			types = append(types, ev.EventType)
		default:
			return types
		}
	}
}

// blackholeAddr returns the address of a TCP listener that accepts
// connections and never answers, like a wedged Redis.
func blackholeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	go func() {
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				_ = c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
			select {
			case <-done:
				return
			default:
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})
	return ln.Addr().String()
}
