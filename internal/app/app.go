package app

import (
	"context"
	"net/http"

	"mentor-portal/internal/config"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error
}

func New(cfg config.Config) (*App, error) {
	infra, err := setupInfra(cfg)
	if err != nil {
		return nil, err
	}

	return newWithInfra(cfg, infra), nil
}

func newWithInfra(cfg config.Config, infra *Infra) *App {
	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: setupHTTP(cfg, infra),
	}

	return &App{
		httpServer: server,
		cleanup:    infra.Close,
	}
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
