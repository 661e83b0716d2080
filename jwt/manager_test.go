package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueParseRoundTripEd25519(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue("s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sid, err := m.SessionID(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "s1" {
		t.Fatalf("expected sid s1, got %q", sid)
	}
}

func TestIssueParseRoundTripHS256(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue("s2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SID != "s2" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueRequiresSessionID(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Issue(""); !errors.Is(err, ErrMissingSessionID) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
}

func TestIssueWithoutPrivateKeyFails(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Issue("s1"); err == nil {
		t.Fatal("expected verify-only manager to refuse issuing")
	}
}

func TestParseRejectsTokenWithoutSID(t *testing.T) {
	secret := []byte("secret-secret-secret-secret")
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = m.Parse(token)
	if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, ErrMissingSessionID) {
		t.Fatalf("expected invalid token without sid, got %v", err)
	}
}

func TestParseRejectsTokenWithoutExpiry(t *testing.T) {
	secret := []byte("secret-secret-secret-secret")
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{SID: "s1"}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

func TestParseRejectsExpiredTokenOutsideLeeway(t *testing.T) {
	secret := []byte("secret-secret-secret-secret")
	issuedAt := time.Unix(1_700_000_000, 0)

	issuer, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret, Clock: fixedClock(issuedAt)})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := issuer.Issue("s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	within, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret, Leeway: 30 * time.Second, Clock: fixedClock(issuedAt.Add(80 * time.Second))})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := within.Parse(token); err != nil {
		t.Fatalf("expected token inside leeway to parse: %v", err)
	}

	outside, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: secret, Leeway: 30 * time.Second, Clock: fixedClock(issuedAt.Add(2 * time.Minute))})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := outside.Parse(token); !errors.Is(err, gjwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	pub, priv := newEdKeys(t)
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"negative leeway", Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: -time.Second}},
		{"huge leeway", Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour}},
		{"huge future iat", Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), MaxFutureIAT: 48 * time.Hour}},
		{"hs256 without secret", Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 without public key", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv}},
		{"ed25519 bad private key", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: []byte("short"), PublicKey: pub}},
		{"empty kid", Config{TTL: time.Minute, SigningMethod: MethodEd25519, VerifyKeys: map[string][]byte{" ": pub}}},
		{"key id not in verify keys", Config{TTL: time.Minute, SigningMethod: MethodEd25519, KeyID: "k2", VerifyKeys: map[string][]byte{"k1": pub}}},
		{"unknown method", Config{TTL: time.Minute, SigningMethod: "rs256", PrivateKey: []byte("k")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected config to be rejected")
			}
		})
	}
}
