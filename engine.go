package sessiongate

import (
	"context"

	"github.com/chatcore/sessiongate/internal/audit"
	"github.com/chatcore/sessiongate/internal/flows"
	"github.com/rs/zerolog"
)

// Engine runs the session gate pipeline. It is safe for concurrent use
// after Builder.Build. A nil *Engine rejects every request.
type Engine struct {
	config    Config
	sessions  SessionStore
	directory UserDirectory
	flows     flows.Service
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    zerolog.Logger
}

// Close flushes queued audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// AuditDropped returns the number of audit events dropped by the
// dispatcher.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// log returns the request logger when one is attached to ctx, and the
// engine logger otherwise.
func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &e.logger
}

func (e *Engine) logRejection(ctx context.Context, rej *Rejection, sessionID string) {
	l := e.log(ctx)

	var ev *zerolog.Event
	switch rej.Kind {
	case KindMisuse:
		ev = l.Error().Bool("misuse", true)
	case KindUnavailable:
		ev = l.Warn().Err(rej.Err)
	default:
		ev = l.Debug()
	}
	ev = ev.Str("gate", rej.Gate).
		Str("kind", rej.Kind.String()).
		Str("reason", string(rej.Reason))
	if sessionID != "" {
		ev = ev.Str("session_id", sessionID)
	}

	switch rej.Kind {
	case KindMisuse:
		ev.Msg("authorization gate misuse: no authenticated principal")
	case KindUnavailable:
		ev.Msg("dependency unavailable")
	default:
		ev.Msg("request rejected")
	}
}
