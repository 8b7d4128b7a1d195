package bootstrap

import (
	"context"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
)

type App struct {
	Cfg            *config.Config
	Infrastructure *Infrastructure
	Repositories   *Repositories
	Services       *Services
	Handlers       *Handlers

	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Cfg: cfg, ctx: ctx, cancel: cancel}

	infra, err := NewInfrastructure(cfg)
	if err != nil {
		cancel()
		logging.Logger.Error("fail NewInfrastructure", "error", err)
		return nil, err
	}
	app.Infrastructure = infra

	// repos
	app.Repositories = NewRepositories(infra.DB)

	// services
	services, err := NewServices(ctx, cfg, app.Repositories, infra)
	if err != nil {
		logging.Logger.Error("fail NewServices", "error", err)
		_ = app.Shutdown()
		return nil, err
	}
	app.Services = services

	app.Handlers = NewHandlers(cfg, services, infra, app.Repositories)
	return app, nil
}

// Context is cancelled by Shutdown. Background loops started by the caller
// should use it.
func (a *App) Context() context.Context {
	return a.ctx
}

// Shutdown stops background work, then closes infra.
func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Infrastructure != nil {
		return a.Infrastructure.Shutdown()
	}
	return nil
}
