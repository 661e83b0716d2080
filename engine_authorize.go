package sessiongate

import (
	"context"
	"fmt"
)

const (
	gateIsActive = "is_active"
	gateIsAdmin  = "is_admin"
	gateCustom   = "custom"
)

// Gate is an authorization predicate over the Principal attached by
// Engine.Authenticate. Gates never fetch data. A gate that finds no
// Principal returns a misuse rejection, which callers see as Forbidden.
type Gate func(ctx context.Context) error

func principalOrMisuse(ctx context.Context, gate string) (*Principal, error) {
	state, _ := StateFromContext(ctx)
	if state.Principal == nil {
		return nil, reject(KindMisuse, ReasonNoPrincipal, gate)
	}
	return state.Principal, nil
}

// IsActive passes iff the principal's account status is active.
func IsActive(ctx context.Context) error {
	p, err := principalOrMisuse(ctx, gateIsActive)
	if err != nil {
		return err
	}
	if p.Status != StatusActive {
		return reject(KindForbidden, ReasonNotActive, gateIsActive)
	}
	return nil
}

// IsAdmin passes iff the principal carries the administrator flag.
func IsAdmin(ctx context.Context) error {
	p, err := principalOrMisuse(ctx, gateIsAdmin)
	if err != nil {
		return err
	}
	if !p.Admin {
		return reject(KindForbidden, ReasonNotAuthorized, gateIsAdmin)
	}
	return nil
}

// Chain runs gates in order and returns the first failure. Nil gates are
// skipped.
func Chain(gates ...Gate) Gate {
	return func(ctx context.Context) error {
		for _, g := range gates {
			if g == nil {
				continue
			}
			if err := g(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Authorize runs gates in order against ctx and stops at the first failure.
//
// The returned error is always a *Rejection. Errors from custom gates that
// are not rejections are classified as Forbidden, and a panicking gate is
// treated as misuse, so every failure fails closed. Misuse is logged at
// error level with a misuse marker; client rejections are logged at debug.
func (e *Engine) Authorize(ctx context.Context, gates ...Gate) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if e == nil {
		return notReady(gateCustom)
	}

	for _, g := range gates {
		if g == nil {
			continue
		}
		rej := runGate(ctx, g)
		if rej == nil {
			continue
		}
		e.recordAuthorizeRejection(ctx, rej)
		return rej
	}
	return nil
}

func runGate(ctx context.Context, g Gate) (rej *Rejection) {
	defer func() {
		if r := recover(); r != nil {
			rej = &Rejection{Kind: KindMisuse, Reason: ReasonGatePanic, Gate: gateCustom, Err: fmt.Errorf("gate panic: %v", r)}
		}
	}()

	err := g(ctx)
	if err == nil {
		return nil
	}
	if r, ok := AsRejection(err); ok {
		return r
	}
	return &Rejection{Kind: KindForbidden, Reason: ReasonNotAuthorized, Gate: gateCustom, Err: err}
}

func (e *Engine) recordAuthorizeRejection(ctx context.Context, rej *Rejection) {
	state, _ := StateFromContext(ctx)
	userID := ""
	if state.Principal != nil {
		userID = state.Principal.UserID
	}

	switch rej.Kind {
	case KindMisuse:
		e.metricInc(MetricGateMisuse)
	case KindForbidden:
		if rej.Reason == ReasonNotActive {
			e.metricInc(MetricForbiddenNotActive)
		} else {
			e.metricInc(MetricForbiddenNotAdmin)
		}
	}

	e.logRejection(ctx, rej, state.SessionID)

	eventType := auditEventAuthorizeRejected
	if rej.Kind == KindMisuse {
		eventType = auditEventGateMisuse
	}
	e.emitAudit(ctx, eventType, false, userID, state.SessionID, rej, func() map[string]string {
		return map[string]string{"gate": rej.Gate}
	})
}
