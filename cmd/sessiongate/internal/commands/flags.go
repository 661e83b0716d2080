package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/jwt"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type RedisFlags struct {
	Addrs    []string `help:"Redis addresses; more than one selects a cluster client." default:"localhost:6379" env:"SESSIONGATE_REDIS_ADDRS"`
	Username string   `help:"Redis ACL username." env:"SESSIONGATE_REDIS_USERNAME"`
	Password string   `help:"Redis password." env:"SESSIONGATE_REDIS_PASSWORD"`
	DB       int      `help:"Redis database number." default:"0" env:"SESSIONGATE_REDIS_DB"`
	Prefix   string   `help:"Session key prefix." default:"sg" env:"SESSIONGATE_REDIS_PREFIX"`
}

func (f *RedisFlags) Client() redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    f.Addrs,
		Username: f.Username,
		Password: f.Password,
		DB:       f.DB,
	})
}

type PostgresFlags struct {
	DSN             string        `help:"PostgreSQL connection string for the users table." env:"SESSIONGATE_POSTGRES_DSN"`
	MaxOpenConns    int           `help:"Maximum open connections." default:"20"`
	MaxIdleConns    int           `help:"Maximum idle connections." default:"5"`
	ConnMaxLifetime time.Duration `help:"Maximum connection lifetime." default:"1h"`
}

func (f *PostgresFlags) Validate() error {
	if f.DSN == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-dsn or SESSIONGATE_POSTGRES_DSN)")
	}
	return nil
}

func (f *PostgresFlags) Open() (*sql.DB, error) {
	db, err := sql.Open("postgres", f.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(f.MaxOpenConns)
	db.SetMaxIdleConns(f.MaxIdleConns)
	db.SetConnMaxLifetime(f.ConnMaxLifetime)
	return db, nil
}

type EngineFlags struct {
	SessionTimeout   time.Duration `help:"Session store lookup timeout." default:"250ms" env:"SESSIONGATE_SESSION_TIMEOUT"`
	DirectoryTimeout time.Duration `help:"User directory lookup timeout." default:"500ms" env:"SESSIONGATE_DIRECTORY_TIMEOUT"`
	Touch            bool          `help:"Write last-seen time on every authenticated request." default:"true" negatable:"" env:"SESSIONGATE_TOUCH"`
	Platform         bool          `help:"Record client platform tags." default:"true" negatable:"" env:"SESSIONGATE_PLATFORM"`
	DefaultPlatform  string        `help:"Platform tag used when a request names none." default:"web" env:"SESSIONGATE_DEFAULT_PLATFORM"`
	Audit            bool          `help:"Write audit events to the log." default:"false" env:"SESSIONGATE_AUDIT"`
	Histograms       bool          `help:"Record the authenticate latency histogram." default:"true" negatable:"" env:"SESSIONGATE_HISTOGRAMS"`
}

// Config applies the flags on top of sessiongate.DefaultConfig.
func (f *EngineFlags) Config(prefix string) sessiongate.Config {
	cfg := sessiongate.DefaultConfig()
	cfg.Session.RedisPrefix = prefix
	cfg.Session.LookupTimeout = f.SessionTimeout
	cfg.Session.TouchEnabled = f.Touch
	cfg.Directory.LookupTimeout = f.DirectoryTimeout
	cfg.Platform.Enabled = f.Platform
	cfg.Platform.DefaultTag = f.DefaultPlatform
	cfg.Audit.Enabled = f.Audit
	cfg.Metrics.EnableLatencyHistograms = f.Histograms
	return cfg
}

type TokenFlags struct {
	Secret   string        `help:"HS256 secret for bearer session tokens; bearer tokens are ignored when empty." env:"SESSIONGATE_TOKEN_SECRET"`
	Issuer   string        `help:"Expected token issuer." default:"sessiongate" env:"SESSIONGATE_TOKEN_ISSUER"`
	Audience string        `help:"Expected token audience." env:"SESSIONGATE_TOKEN_AUDIENCE"`
	TTL      time.Duration `help:"Lifetime of issued tokens." default:"15m" env:"SESSIONGATE_TOKEN_TTL"`
	Leeway   time.Duration `help:"Clock skew allowed when checking expiry." default:"30s"`
}

func (f *TokenFlags) Validate() error {
	if f.Secret != "" && len(f.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

// Manager returns nil when no secret is configured.
func (f *TokenFlags) Manager() (*jwt.Manager, error) {
	if f.Secret == "" {
		return nil, nil
	}
	return jwt.NewManager(jwt.Config{
		TTL:           f.TTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(f.Secret),
		Issuer:        f.Issuer,
		Audience:      f.Audience,
		Leeway:        f.Leeway,
		RequireIAT:    true,
	})
}
