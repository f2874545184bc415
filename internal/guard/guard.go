// Package guard decides, once per protected navigation, whether the browser
// may see a protected view.
//
// The locally cached claim is advisory and the session authority is
// canonical: a claim alone admits nobody unless the operator enabled the
// bypass policy. Every evaluation runs the full sequence; nothing is carried
// over from earlier navigations.
package guard

import (
	"context"
	"slices"
	"time"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/identity"
	"mentor-portal/internal/logger"
	"mentor-portal/internal/verifier"

	"github.com/google/uuid"
)

// Policy is the operator-controlled behaviour of the guard.
type Policy struct {
	// BypassSessionCheck admits any claim with an email without asking the
	// authority. The role gate still applies.
	BypassSessionCheck bool
}

// Observer is told about every state an evaluation enters.
type Observer func(navigationID string, state State)

type Guard struct {
	verifier  verifier.Verifier
	policy    Policy
	metrics   *Metrics
	observers []Observer
}

type Option func(*Guard)

func WithPolicy(p Policy) Option {
	return func(g *Guard) { g.policy = p }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

func WithObserver(o Observer) Option {
	return func(g *Guard) { g.observers = append(g.observers, o) }
}

func New(v verifier.Verifier, opts ...Option) *Guard {
	g := &Guard{verifier: v}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the policy the guard was built with.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Evaluate runs one navigation against store. An empty allow-list admits
// any authenticated role.
//
// The only error is ErrNavigationAbandoned, returned when ctx ends while the
// authority is being asked; the store is left untouched in that case.
func (g *Guard) Evaluate(ctx context.Context, store identity.Store, allowed ...auth.Role) (Decision, error) {
	d := Decision{
		NavigationID: uuid.NewString(),
		State:        Unevaluated,
		Path:         PathAuthoritative,
	}
	g.enter(&d, Pending)

	claim, ok := store.Read(ctx)
	d.Claim, d.HasClaim = claim, ok
	usable := ok && claim.HasEmail()

	if g.policy.BypassSessionCheck {
		d.Path = PathBypass
		logger.Warn("session check bypassed", map[string]any{
			"navigation_id": d.NavigationID,
			"verification":  string(PathBypass),
			"claim_present": usable,
		})
		if !usable {
			return g.finish(d, DeniedNoSession, ErrNoClaim), nil
		}
		return g.roleGate(d, allowed), nil
	}

	if !usable {
		return g.finish(d, DeniedNoSession, ErrNoClaim), nil
	}

	start := time.Now()
	res := g.verifier.Verify(ctx)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		logger.Debug("navigation abandoned during session check", map[string]any{
			"navigation_id": d.NavigationID,
			"discarded":     res.String(),
		})
		// counted under state="pending"
		g.metrics.observeDecision(d)
		return d, ErrNavigationAbandoned
	}

	g.metrics.observeVerify(res.Outcome.String(), res.Reason.String(), elapsed)

	switch {
	case res.Outcome == verifier.Confirmed && res.Session != nil:
		d.Session = res.Session
		return g.roleGate(d, allowed), nil

	case res.Outcome == verifier.Denied:
		if err := store.Purge(ctx); err != nil {
			logger.Error("failed to purge local identity after rejection", map[string]any{
				"navigation_id": d.NavigationID,
				"error":         err.Error(),
			})
		}
		return g.finish(d, DeniedNoSession, &RejectedError{Reason: res.Reason}), nil

	default:
		return g.finish(d, DeniedNoSession, &TransportError{Err: res.Err}), nil
	}
}

func (g *Guard) roleGate(d Decision, allowed []auth.Role) Decision {
	if len(allowed) > 0 && !slices.Contains(allowed, d.Claim.Role) {
		return g.finish(d, DeniedWrongRole, ErrRoleMismatch)
	}
	return g.finish(d, Admitted, nil)
}

func (g *Guard) finish(d Decision, s State, err error) Decision {
	d.Err = err
	g.enter(&d, s)
	g.metrics.observeDecision(d)
	logDecision(d)
	return d
}

func (g *Guard) enter(d *Decision, s State) {
	d.State = s
	for _, o := range g.observers {
		o(d.NavigationID, s)
	}
}

func logDecision(d Decision) {
	fields := map[string]any{
		"navigation_id": d.NavigationID,
		"state":         d.State.String(),
		"verification":  string(d.Path),
	}
	if d.HasClaim {
		fields["role"] = string(d.Claim.Role)
	}
	if d.Err != nil {
		fields["reason"] = d.Err.Error()
	}

	switch d.Err.(type) {
	case nil:
		logger.Debug("navigation admitted", fields)
	case *TransportError:
		logger.Warn("session authority unavailable, navigation denied", fields)
	case *RejectedError:
		logger.Info("session rejected, local identity purged", fields)
	default:
		logger.Debug("navigation denied", fields)
	}
}
