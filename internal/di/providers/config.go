package providers

import (
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/logger"
)

// ProvideConfig loads the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// ProvideLogger creates the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
	})

	log.Info("Starting Basegroup server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"base_path", cfg.Data.BasePath,
		"data_dir", cfg.Data.DataDir,
	)

	return log, nil
}

// ProvideSlogLogger exposes the underlying *slog.Logger for services that
// take the standard logger type.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
