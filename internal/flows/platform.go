package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type PlatformStore interface {
	SetPlatform(ctx context.Context, sessionID, platform string, ttl time.Duration) error
}

// PlatformDeps captures platform-tag recording dependencies.
type PlatformDeps struct {
	Store        PlatformStore
	DefaultTag   string
	MaxTagLength int
	SlotTTL      time.Duration
	WriteTimeout time.Duration
}

// PlatformResult reports what was recorded and whether the write failed.
type PlatformResult struct {
	Tag          string
	SessionScope bool
	Defaulted    bool
	Err          error
}

// NormalizePlatform lower-cases and trims tag. Empty, over-long, or tags
// outside [a-z0-9._-] fall back to def; defaulted reports the fallback.
func NormalizePlatform(tag, def string, maxLen int) (normalized string, defaulted bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || (maxLen > 0 && len(tag) > maxLen) {
		return def, true
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return def, true
		}
	}
	return tag, false
}

// RunRecordPlatform writes the platform tag into the session-scoped slot when
// sessionID is set, or the process-wide slot otherwise. Failures, including
// a panicking store, are returned in the result and never propagate.
func RunRecordPlatform(ctx context.Context, sessionID, tag string, deps PlatformDeps) (res PlatformResult) {
	res.Tag, res.Defaulted = NormalizePlatform(tag, deps.DefaultTag, deps.MaxTagLength)
	res.SessionScope = sessionID != ""

	if deps.Store == nil {
		res.Err = errors.New("platform store not configured")
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("platform store panic: %v", r)
		}
	}()

	writeCtx, cancel := boundedContext(ctx, deps.WriteTimeout)
	defer cancel()

	res.Err = deps.Store.SetPlatform(writeCtx, sessionID, res.Tag, deps.SlotTTL)
	return res
}
