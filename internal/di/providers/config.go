// Package providers contains dependency injection providers for the Pintree admin server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	backend := "in-process"
	if cfg.Persistence.Remote() {
		backend = cfg.Persistence.BaseURL
	}
	log.Info("Starting Pintree admin server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"database_path", cfg.Store.Path,
		"persistence", backend,
	)

	return log, nil
}
