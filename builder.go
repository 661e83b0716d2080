package sessiongate

import (
	"errors"
	"time"

	"github.com/chatcore/sessiongate/internal/audit"
	"github.com/chatcore/sessiongate/internal/flows"
	"github.com/chatcore/sessiongate/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles an Engine. Configure it once during initialization,
// call Build, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore SessionStore
	directory    UserDirectory
	auditSink    AuditSink
	logger       *zerolog.Logger
	clock        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis makes Build create a session.Store on client. It is ignored
// when WithSessionStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore injects a session store directly, typically a fake in
// tests.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessionStore = store
	return b
}

func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the fallback logger. A logger attached to the request
// context with zerolog's WithContext takes precedence. Defaults to a
// disabled logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock overrides the time source used for last-seen timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. A Builder can be
// built only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.sessionStore
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	}

	if b.directory == nil {
		return nil, errors.New("user directory required")
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "sessiongate").Logger()

	now := b.clock
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		sessions:  store,
		directory: b.directory,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	engine.flows = flows.New(flows.Deps{
		Reload: flows.ReloadDeps{
			SessionStore:  store,
			LookupTimeout: cfg.Session.LookupTimeout,
		},
		Authenticate: flows.AuthenticateDeps{
			Directory:        b.directory,
			SessionStore:     store,
			Now:              now,
			DirectoryTimeout: cfg.Directory.LookupTimeout,
			TouchTimeout:     cfg.Session.TouchTimeout,
			TouchEnabled:     cfg.Session.TouchEnabled,
		},
		Platform: flows.PlatformDeps{
			Store:        store,
			DefaultTag:   cfg.Platform.DefaultTag,
			MaxTagLength: cfg.Platform.MaxTagLength,
			SlotTTL:      cfg.Platform.SlotTTL,
			WriteTimeout: cfg.Platform.WriteTimeout,
		},
		Logout: flows.LogoutDeps{
			SessionStore: store,
			Timeout:      cfg.Session.LogoutTimeout,
		},
	})

	b.built = true

	return engine, nil
}
