package sessiongate

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Obtain defaults from
// DefaultConfig and override individual fields.
type Config struct {
	Session   SessionConfig
	Directory DirectoryConfig
	Platform  PlatformConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session store access.
type SessionConfig struct {
	RedisPrefix string

	// LookupTimeout bounds the session GET. Zero leaves only the request
	// deadline in effect.
	LookupTimeout time.Duration

	// TouchEnabled persists the last-seen timestamp after a successful
	// authentication.
	TouchEnabled bool
	TouchTimeout time.Duration

	LogoutTimeout time.Duration
}

/*
====================================
DIRECTORY CONFIG
====================================
*/

// DirectoryConfig controls user directory access.
type DirectoryConfig struct {
	LookupTimeout time.Duration
}

/*
====================================
PLATFORM CONFIG
====================================
*/

// PlatformConfig controls the platform-tag recorder.
type PlatformConfig struct {
	Enabled      bool
	DefaultTag   string
	MaxTagLength int
	// SlotTTL is the lifetime of a written slot. Zero keeps slots until
	// overwritten or deleted with their session.
	SlotTTL      time.Duration
	WriteTimeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:   "sg",
			LookupTimeout: 250 * time.Millisecond,
			TouchEnabled:  true,
			TouchTimeout:  100 * time.Millisecond,
			LogoutTimeout: 500 * time.Millisecond,
		},
		Directory: DirectoryConfig{
			LookupTimeout: 500 * time.Millisecond,
		},
		Platform: PlatformConfig{
			Enabled:      true,
			DefaultTag:   "web",
			MaxTagLength: 32,
			SlotTTL:      24 * time.Hour,
			WriteTimeout: 100 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// Config holds no reference fields today; the copy is already deep.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.LookupTimeout < 0 {
		return errors.New("Session LookupTimeout must be >= 0")
	}
	if c.Session.TouchTimeout < 0 {
		return errors.New("Session TouchTimeout must be >= 0")
	}
	if c.Session.LogoutTimeout < 0 {
		return errors.New("Session LogoutTimeout must be >= 0")
	}

	// Directory
	if c.Directory.LookupTimeout < 0 {
		return errors.New("Directory LookupTimeout must be >= 0")
	}

	// Platform
	if c.Platform.Enabled {
		if c.Platform.DefaultTag == "" {
			return errors.New("Platform DefaultTag is required when the recorder is enabled")
		}
		if c.Platform.MaxTagLength <= 0 || c.Platform.MaxTagLength > 255 {
			return errors.New("Platform MaxTagLength must be between 1 and 255")
		}
		if len(c.Platform.DefaultTag) > c.Platform.MaxTagLength {
			return errors.New("Platform DefaultTag exceeds MaxTagLength")
		}
		if c.Platform.SlotTTL < 0 {
			return errors.New("Platform SlotTTL must be >= 0")
		}
		if c.Platform.WriteTimeout < 0 {
			return errors.New("Platform WriteTimeout must be >= 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

// LintWarning is a valid but questionable setting.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint returns warnings for settings that Validate accepts but that are
// unlikely to be intended in production.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	if c.Session.LookupTimeout == 0 {
		ws = append(ws, LintWarning{"session_lookup_unbounded", "session lookups are bounded only by the request deadline"})
	}
	if c.Directory.LookupTimeout == 0 {
		ws = append(ws, LintWarning{"directory_lookup_unbounded", "user lookups are bounded only by the request deadline"})
	}
	if !c.Session.TouchEnabled {
		ws = append(ws, LintWarning{"touch_disabled", "last-seen timestamps will never advance"})
	}
	if c.Platform.Enabled && c.Platform.SlotTTL == 0 {
		ws = append(ws, LintWarning{"platform_slot_no_ttl", "process-wide platform slot never expires"})
	}
	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{"audit_disabled", "gate misuse will only be visible in logs"})
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		ws = append(ws, LintWarning{"audit_blocking", "a slow audit sink will add latency to every request"})
	}
	return ws
}
