package guard

import (
	"mentor-portal/internal/auth"
	"mentor-portal/internal/verifier"
)

// State of one evaluation.
type State int

const (
	Unevaluated State = iota
	Pending
	Admitted
	DeniedNoSession
	DeniedWrongRole
)

func (s State) String() string {
	switch s {
	case Unevaluated:
		return "unevaluated"
	case Pending:
		return "pending"
	case Admitted:
		return "admitted"
	case DeniedNoSession:
		return "denied_no_session"
	case DeniedWrongRole:
		return "denied_wrong_role"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends an evaluation.
func (s State) Terminal() bool {
	return s == Admitted || s == DeniedNoSession || s == DeniedWrongRole
}

// Target is what the consumer should do with a terminal decision.
type Target int

const (
	Render Target = iota + 1
	RedirectLogin
	RedirectLanding
)

func (t Target) String() string {
	switch t {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectLanding:
		return "redirect_landing"
	default:
		return "none"
	}
}

// Path says how a decision was reached.
type Path string

const (
	PathAuthoritative Path = "authoritative"
	PathBypass        Path = "bypass"
)

// Decision is the terminal result of one evaluation.
type Decision struct {
	NavigationID string
	State        State
	Path         Path

	// Claim is the local claim read during evaluation, if any.
	Claim    auth.Claim
	HasClaim bool

	// Session is set only when the authority confirmed the session.
	// Bypass admissions never carry one.
	Session *verifier.VerifiedSession

	// Err classifies a denial: ErrNoClaim, ErrSessionRejected,
	// *TransportError or ErrRoleMismatch.
	Err error
}

func (d Decision) Target() Target {
	switch d.State {
	case Admitted:
		return Render
	case DeniedWrongRole:
		return RedirectLanding
	default:
		return RedirectLogin
	}
}

// Role of the admitted identity, for consumers choosing a role-specific view.
func (d Decision) Role() auth.Role {
	if d.State != Admitted {
		return ""
	}
	return d.Claim.Role
}
