// Package service contains the application services wiring the store,
// auth, loader, and grouping engine together behind the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/domain"
	"github.com/basegroupapp/basegroup-server/internal/store"
	"github.com/basegroupapp/basegroup-server/internal/validation"
)

// ServerVersion is stamped into the instance record and health responses.
const ServerVersion = "1.0.0"

// validate is the shared request validator for all services.
var validate = validation.New()

// InstanceService manages the singleton instance record and the gate
// credential's lifecycle.
type InstanceService struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewInstanceService creates a new instance service.
func NewInstanceService(st *store.Store, cfg *config.Config, logger *slog.Logger) *InstanceService {
	return &InstanceService{store: st, cfg: cfg, logger: logger}
}

// InitializeInstance ensures the instance record exists, seeding the
// admin password from configuration when one is provided and no
// credential has been set yet.
func (s *InstanceService) InitializeInstance(ctx context.Context) (*domain.Instance, error) {
	instance, err := s.store.GetInstance(ctx)
	if errors.Is(err, store.ErrInstanceNotFound) {
		instance, err = s.store.CreateInstance(ctx, s.cfg.Server.Name, ServerVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize instance: %w", err)
	}

	if !instance.Configured && s.cfg.Auth.AdminPassword != "" {
		if err := s.setPassword(ctx, instance, s.cfg.Auth.AdminPassword); err != nil {
			return nil, fmt.Errorf("seed admin password: %w", err)
		}
		if s.logger != nil {
			s.logger.Info("Admin password seeded from configuration")
		}
	}

	return instance, nil
}

// GetInstance returns the instance record.
func (s *InstanceService) GetInstance(ctx context.Context) (*domain.Instance, error) {
	return s.store.GetInstance(ctx)
}

// IsSetupRequired reports whether the gate password still needs to be set.
func (s *InstanceService) IsSetupRequired(ctx context.Context) (bool, error) {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		if errors.Is(err, store.ErrInstanceNotFound) {
			return true, nil
		}
		return false, err
	}
	return !instance.Configured, nil
}

// SetPassword hashes and stores the gate password and marks the instance
// configured.
func (s *InstanceService) SetPassword(ctx context.Context, password string) error {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		return fmt.Errorf("get instance: %w", err)
	}
	return s.setPassword(ctx, instance, password)
}

func (s *InstanceService) setPassword(ctx context.Context, instance *domain.Instance, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.SetAdmin(ctx, &domain.Admin{PasswordHash: hash}); err != nil {
		return err
	}

	instance.Configured = true
	return s.store.UpdateInstance(ctx, instance)
}
