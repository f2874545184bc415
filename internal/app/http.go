package app

import (
	"net/http"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/auth/handler"
	"mentor-portal/internal/config"
	"mentor-portal/internal/device"
	"mentor-portal/internal/guard"
	"mentor-portal/internal/logger"
	"mentor-portal/internal/middleware"
	"mentor-portal/internal/verifier"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupHTTP(cfg config.Config, infra *Infra) *gin.Engine {

	// ----------------------------
	// Dependencies
	// ----------------------------

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessionVerifier := verifier.NewHTTPVerifier(
		cfg.VerifyURL(),
		verifier.WithTimeout(cfg.VerifyTimeout),
		verifier.WithoutCookies(device.CookieName),
	)

	if cfg.BypassSessionCheck {
		logger.Warn("session verification bypassed for every navigation", map[string]any{
			"verification": string(guard.PathBypass),
		})
	}

	sessionGuard := guard.New(
		sessionVerifier,
		guard.WithPolicy(guard.Policy{BypassSessionCheck: cfg.BypassSessionCheck}),
		guard.WithMetrics(guard.NewMetrics(registry)),
	)

	sessionMiddleware := middleware.NewSessionMiddleware(
		sessionGuard,
		infra.Stores,
		cfg.LoginPath,
		cfg.LandingPath,
	)

	authHandler := handler.NewHandler(
		infra.Stores,
		device.CookieOptions{
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router, middleware.GinRequireSession(sessionMiddleware))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET(cfg.LandingPath, publicView("landing"))
	if cfg.LoginPath != cfg.LandingPath {
		router.GET(cfg.LoginPath, publicView("login"))
	}

	// ----------------------------
	// Protected Web Routes
	// ----------------------------

	for _, route := range protectedRoutes {
		group := router.Group("/")
		group.Use(middleware.GinRequireSession(sessionMiddleware, route.roles...))
		group.GET(route.path, route.view)
	}

	return router
}

type protectedRoute struct {
	path  string
	roles []auth.Role
	view  gin.HandlerFunc
}

var protectedRoutes = []protectedRoute{
	{"/dashboard", []auth.Role{auth.RoleMentor, auth.RoleMentee}, dashboard},
	{"/mentordashboard", []auth.Role{auth.RoleMentor}, view("mentor_dashboard")},
	{"/menteedashboard", []auth.Role{auth.RoleMentee}, view("mentee_dashboard")},
	{"/choice", []auth.Role{auth.RoleNewUser}, view("registration_choice")},
	{"/admin/matching", []auth.Role{auth.RoleAdmin}, view("matching_dashboard")},
}
