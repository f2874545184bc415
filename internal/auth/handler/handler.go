package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/device"
	"mentor-portal/internal/identity"
	"mentor-portal/internal/logger"
	"mentor-portal/internal/middleware"

	"github.com/gin-gonic/gin"
)

const maxBlobSize = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// readBody reads at most maxBlobSize bytes and fails rather than truncate.
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBlobSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBlobSize {
		return nil, errBodyTooLarge
	}
	return body, nil
}

func abortBody(c *gin.Context, err error) {
	if errors.Is(err, errBodyTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body exceeds 64KiB"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

type Handler struct {
	stores  identity.Factory
	cookies device.CookieOptions
}

func NewHandler(
	stores identity.Factory,
	cookies device.CookieOptions,
) *Handler {
	return &Handler{
		stores:  stores,
		cookies: cookies,
	}
}

// RegisterRoutes mounts the local identity endpoints. authenticated guards
// the routes that need an admitted session.
func (h *Handler) RegisterRoutes(r *gin.Engine, authenticated gin.HandlerFunc) {
	r.POST("/auth/claim", h.storeClaim)
	r.POST("/auth/logout", h.Logout)

	protected := r.Group("/")
	protected.Use(authenticated)
	protected.GET("/session", h.currentSession)
	protected.GET("/auth/profile/:kind", h.readProfile)
	protected.PUT("/auth/profile/:kind", h.writeProfile)
}

// storeClaim records the identity the backend returned at login. The claim
// stays advisory until a guarded navigation verifies it.
func (h *Handler) storeClaim(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		abortBody(c, err)
		return
	}

	var claim auth.Claim
	if err := json.Unmarshal(body, &claim); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim"})
		return
	}

	deviceID, err := device.Ensure(c.Writer, c.Request, h.cookies)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "device error"})
		return
	}

	if err := h.stores.ForDevice(deviceID).Write(c.Request.Context(), claim); err != nil {
		if errors.Is(err, identity.ErrMissingEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "claim has no email"})
			return
		}
		logger.Error("failed to store identity claim", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store claim"})
		return
	}

	logger.Info("identity claim stored", map[string]any{
		"role": string(claim.Role),
		"ip":   c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "stored", "role": claim.Role})
}

func (h *Handler) Logout(c *gin.Context) {
	// 1. Purge the browser's record (best-effort)
	if deviceID, ok := device.FromRequest(c.Request); ok {
		if err := h.stores.ForDevice(deviceID).Purge(c.Request.Context()); err != nil {
			logger.Warn("logout purge failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	// 2. Clear cookie (must pass options)
	device.ClearCookie(c.Writer, h.cookies)

	// 3. Idempotent response
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentSession(c *gin.Context) {
	d, ok := middleware.DecisionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	body := gin.H{
		"user":         d.Claim,
		"role":         d.Role(),
		"verification": d.Path,
	}
	if d.Session != nil {
		body["verified_at"] = d.Session.VerifiedAt()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) readProfile(c *gin.Context) {
	kind, err := identity.ParseProfileKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown profile"})
		return
	}

	blob, ok := h.storeOf(c).ReadProfile(c.Request.Context(), kind)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not cached"})
		return
	}
	c.Data(http.StatusOK, "application/json", blob)
}

func (h *Handler) writeProfile(c *gin.Context) {
	kind, err := identity.ParseProfileKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown profile"})
		return
	}

	blob, err := readBody(c)
	if err != nil {
		abortBody(c, err)
		return
	}

	if err := h.storeOf(c).WriteProfile(c.Request.Context(), kind, blob); err != nil {
		if errors.Is(err, identity.ErrMalformedProfile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "profile must be JSON"})
			return
		}
		logger.Error("failed to cache profile", map[string]any{
			"profile": string(kind),
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cache profile"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) storeOf(c *gin.Context) identity.Store {
	return middleware.StoreFor(h.stores, c.Request)
}
