package middleware

import (
	"context"
	"net/http"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/device"
	"mentor-portal/internal/guard"
	"mentor-portal/internal/identity"
	"mentor-portal/internal/verifier"
)

// unexported, collision-proof context key
type decisionContextKeyType struct{}

var decisionKey = decisionContextKeyType{}

// DecisionFromContext returns the admission decision of the current request.
func DecisionFromContext(ctx context.Context) (guard.Decision, bool) {
	d, ok := ctx.Value(decisionKey).(guard.Decision)
	return d, ok
}

// ClaimFromContext returns the admitted identity claim.
func ClaimFromContext(ctx context.Context) (auth.Claim, bool) {
	d, ok := DecisionFromContext(ctx)
	if !ok || d.State != guard.Admitted {
		return auth.Claim{}, false
	}
	return d.Claim, true
}

// StoreFor returns the identity store of the browser behind r. A browser
// without a device cookie gets an empty store.
func StoreFor(stores identity.Factory, r *http.Request) identity.Store {
	id, ok := device.FromRequest(r)
	if !ok {
		return identity.NewMemoryStore()
	}
	return stores.ForDevice(id)
}

type SessionMiddleware struct {
	Guard       *guard.Guard
	Stores      identity.Factory
	LoginPath   string
	LandingPath string
}

func NewSessionMiddleware(g *guard.Guard, stores identity.Factory, loginPath, landingPath string) *SessionMiddleware {
	return &SessionMiddleware{
		Guard:       g,
		Stores:      stores,
		LoginPath:   loginPath,
		LandingPath: landingPath,
	}
}

// RequireSession guards next. Each request is one navigation: the guard runs
// in full and the request is rendered, sent to login, or sent to the
// landing page.
func (m *SessionMiddleware) RequireSession(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Resolve the browser's local record
			store := StoreFor(m.Stores, r)

			// 2. Browser cookies are the ambient credential for the authority
			ctx := verifier.WithCookies(r.Context(), r.Cookies())

			// 3. Evaluate
			d, err := m.Guard.Evaluate(ctx, store, allowed...)
			if err != nil {
				// client went away; nothing to render
				return
			}

			switch d.Target() {
			case guard.Render:
				ctx := context.WithValue(r.Context(), decisionKey, d)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.RedirectLanding:
				http.Redirect(w, r, m.LandingPath, http.StatusFound)
			default:
				http.Redirect(w, r, m.LoginPath, http.StatusFound)
			}
		})
	}
}
