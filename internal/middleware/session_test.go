package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/device"
	"mentor-portal/internal/guard"
	"mentor-portal/internal/identity"
	"mentor-portal/internal/verifier"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mw       *SessionMiddleware
	stores   *identity.MemoryFactory
	deviceID string
	calls    *atomic.Int32
	sid      *atomic.Value
}

func newFixture(t *testing.T, status int, policy guard.Policy) *fixture {
	t.Helper()

	calls := &atomic.Int32{}
	sid := &atomic.Value{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if c, err := r.Cookie("sid"); err == nil {
			sid.Store(c.Value)
		}
		if _, err := r.Cookie(device.CookieName); err == nil {
			t.Error("device cookie must not reach the authority")
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	v := verifier.NewHTTPVerifier(srv.URL+"/api/verify-session", verifier.WithoutCookies(device.CookieName))
	stores := identity.NewMemoryFactory()
	deviceID, err := device.GenerateID()
	require.NoError(t, err)

	return &fixture{
		mw:       NewSessionMiddleware(guard.New(v, guard.WithPolicy(policy)), stores, "/login", "/"),
		stores:   stores,
		deviceID: deviceID,
		calls:    calls,
		sid:      sid,
	}
}

func (f *fixture) login(t *testing.T, claim auth.Claim) {
	t.Helper()
	require.NoError(t, f.stores.ForDevice(f.deviceID).Write(context.Background(), claim))
}

func (f *fixture) request(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.AddCookie(&http.Cookie{Name: device.CookieName, Value: f.deviceID})
	r.AddCookie(&http.Cookie{Name: "sid", Value: "backend-session"})
	return r
}

func TestRequireSession(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, ok := ClaimFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(claim.Role))
	})

	t.Run("admitted request reaches handler with claim", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentor})

		w := httptest.NewRecorder()
		f.mw.RequireSession(auth.RoleMentor)(okHandler).ServeHTTP(w, f.request("/mentordashboard"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "mentor", w.Body.String())
		assert.Equal(t, "backend-session", f.sid.Load())
	})

	t.Run("no device cookie redirects to login without network", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, guard.Policy{})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/mentordashboard", nil)
		f.mw.RequireSession()(okHandler).ServeHTTP(w, r)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Zero(t, f.calls.Load())
	})

	t.Run("rejected session redirects to login and purges", func(t *testing.T) {
		f := newFixture(t, http.StatusForbidden, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentor})

		w := httptest.NewRecorder()
		f.mw.RequireSession()(okHandler).ServeHTTP(w, f.request("/mentordashboard"))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		_, ok := f.stores.ForDevice(f.deviceID).Read(context.Background())
		assert.False(t, ok)
	})

	t.Run("wrong role redirects to landing", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleNewUser})

		w := httptest.NewRecorder()
		f.mw.RequireSession(auth.RoleMentor, auth.RoleMentee)(okHandler).ServeHTTP(w, f.request("/dashboard"))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("abandoned request writes nothing", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentor})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w := httptest.NewRecorder()
		f.mw.RequireSession()(okHandler).ServeHTTP(w, f.request("/dashboard").WithContext(ctx))

		assert.False(t, w.Flushed)
		assert.Empty(t, w.Body.String())
		assert.Empty(t, w.Header().Get("Location"))
		_, ok := f.stores.ForDevice(f.deviceID).Read(context.Background())
		assert.True(t, ok)
	})
}

func TestGinRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(f *fixture) *gin.Engine {
		r := gin.New()
		g := r.Group("/")
		g.Use(GinRequireSession(f.mw, auth.RoleMentee))
		g.GET("/menteedashboard", func(c *gin.Context) {
			claim, ok := GinClaim(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"email": claim.Email, "role": c.GetString(RoleKey)})
		})
		return r
	}

	t.Run("admitted", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentee})

		w := httptest.NewRecorder()
		newRouter(f).ServeHTTP(w, f.request("/menteedashboard"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"email":"a@x.com","role":"mentee"}`, w.Body.String())
	})

	t.Run("denied stops the chain", func(t *testing.T) {
		f := newFixture(t, http.StatusUnauthorized, guard.Policy{})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentee})

		w := httptest.NewRecorder()
		newRouter(f).ServeHTTP(w, f.request("/menteedashboard"))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("bypass admits without authority", func(t *testing.T) {
		f := newFixture(t, http.StatusUnauthorized, guard.Policy{BypassSessionCheck: true})
		f.login(t, auth.Claim{Email: "a@x.com", Role: auth.RoleMentee})

		w := httptest.NewRecorder()
		newRouter(f).ServeHTTP(w, f.request("/menteedashboard"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, f.calls.Load())
	})
}
