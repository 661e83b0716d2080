package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/jwt"
	"github.com/chatcore/sessiongate/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	handler http.Handler
	store   *session.Store
	dir     *directory.Memory
	tokens  *jwt.Manager
}

func newRouterFixture(t *testing.T, checks map[string]Pinger, users ...directory.Snapshot) *routerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	dir := directory.NewMemory(users...)
	engine, err := sessiongate.New().
		WithRedis(rdb).
		WithUserDirectory(dir).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	tokens, err := (&TokenFlags{Secret: strings.Repeat("k", 32), Issuer: "sessiongate", TTL: time.Minute}).Manager()
	require.NoError(t, err)

	return &routerFixture{
		handler: NewRouter(RouterDeps{Engine: engine, Tokens: tokens, Logger: zerolog.Nop(), Checks: checks}),
		store:   session.NewStore(rdb, "sg"),
		dir:     dir,
		tokens:  tokens,
	}
}

func (f *routerFixture) login(t *testing.T, sid, uid string) {
	t.Helper()
	issued := time.Now().Add(-time.Minute).UnixMilli()
	require.NoError(t, f.store.Save(context.Background(), &session.Session{
		SessionID: sid, UserID: uid, IssuedAt: issued, LastSeenAt: issued,
	}, time.Hour))
}

func (f *routerFixture) do(method, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func member(id string, status directory.Status, admin bool) directory.Snapshot {
	return directory.Snapshot{
		UserID:              id,
		CredentialChangedAt: time.Now().Add(-time.Hour),
		Status:              status,
		Admin:               admin,
	}
}

func TestMeReturnsPrincipal(t *testing.T) {
	f := newRouterFixture(t, nil, member("u1", directory.StatusActive, false))
	f.login(t, "s1", "u1")

	rec := f.do(http.MethodGet, "/v1/me?platform=android", "s1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.UserID)
	assert.Equal(t, "s1", body.SessionID)
	assert.Equal(t, "active", body.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	slot, err := f.store.Platform(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "android", slot)
}

func TestMeWithBearerToken(t *testing.T) {
	f := newRouterFixture(t, nil, member("u1", directory.StatusActive, false))
	f.login(t, "s1", "u1")

	token, err := f.tokens.Issue("s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMeWithoutSession(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session not found, you are not allowed here!")
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newRouterFixture(t, nil, member("u1", directory.StatusActive, false))
	f.login(t, "s1", "u1")

	rec := f.do(http.MethodPost, "/v1/logout", "s1")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/v1/me", "s1").Code)
}

func TestAdminStatusGates(t *testing.T) {
	cases := []struct {
		name   string
		user   directory.Snapshot
		status int
	}{
		{"active admin", member("u1", directory.StatusActive, true), http.StatusOK},
		{"active member", member("u1", directory.StatusActive, false), http.StatusForbidden},
		{"banned admin", member("u1", directory.StatusBanned, true), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t, nil, tc.user)
			f.login(t, "s1", "u1")
			assert.Equal(t, tc.status, f.do(http.MethodGet, "/v1/admin/status", "s1").Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	f := newRouterFixture(t, map[string]Pinger{"redis": ok, "postgres": ok})
	rec := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"redis":"ok","postgres":"ok"}`, rec.Body.String())

	f = newRouterFixture(t, map[string]Pinger{"redis": ok, "postgres": down})
	rec = f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"redis":"ok","postgres":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.do(http.MethodGet, "/v1/me", "")

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sessiongate_auth_no_session_total 1")
}
