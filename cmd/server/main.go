package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentor-portal/internal/app"
	"mentor-portal/internal/config"
	"mentor-portal/internal/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	if err != nil {
		logger.Fatal("failed to load config", map[string]any{
			"error": err.Error(),
		})
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("mentor-portal started", map[string]any{
		"port":         cfg.AppPort,
		"verify_url":   cfg.VerifyURL(),
		"bypass_check": cfg.BypassSessionCheck,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("mentor-portal stopped cleanly", nil)
}
