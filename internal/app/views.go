package app

import (
	"net/http"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Views are rendered by the browser bundle; the portal only tells it which
// one to mount and for whom.

func view(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, _ := middleware.GinClaim(c)
		c.JSON(http.StatusOK, gin.H{
			"view":      name,
			"role":      claim.Role,
			"firstname": claim.FirstName(),
			"photo_url": claim.PhotoURL,
		})
	}
}

func publicView(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"view": name})
	}
}

// dashboard sends mentors and mentees to their own dashboard.
func dashboard(c *gin.Context) {
	claim, _ := middleware.GinClaim(c)
	if claim.Role == auth.RoleMentor {
		c.Redirect(http.StatusFound, "/mentordashboard")
		return
	}
	c.Redirect(http.StatusFound, "/menteedashboard")
}
