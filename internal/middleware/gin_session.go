package middleware

import (
	"net/http"

	"mentor-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

// Gin context keys set on admitted requests.
const (
	ClaimKey = "claim"
	RoleKey  = "role"
)

// GinRequireSession adapts SessionMiddleware.RequireSession to Gin.
func GinRequireSession(m *SessionMiddleware, allowed ...auth.Role) gin.HandlerFunc {
	guarded := m.RequireSession(allowed...)

	return func(c *gin.Context) {
		admitted := false

		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admitted = true
			c.Request = r
			if claim, ok := ClaimFromContext(r.Context()); ok {
				c.Set(ClaimKey, claim)
				c.Set(RoleKey, string(claim.Role))
			}
			c.Next()
		})

		guarded(next).ServeHTTP(c.Writer, c.Request)

		// Redirected or abandoned: stop the Gin chain
		if !admitted {
			c.Abort()
		}
	}
}

// GinClaim returns the claim GinRequireSession stored on c.
func GinClaim(c *gin.Context) (auth.Claim, bool) {
	v, ok := c.Get(ClaimKey)
	if !ok {
		return auth.Claim{}, false
	}
	claim, ok := v.(auth.Claim)
	return claim, ok
}
