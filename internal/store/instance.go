package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// GetInstance retrieves the singleton server instance configuration.
// Returns ErrInstanceNotFound if no instance exists.
func (s *Store) GetInstance(_ context.Context) (*domain.Instance, error) {
	var instance domain.Instance

	if err := s.get(instanceKey, &instance); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return &instance, nil
}

// CreateInstance creates the singleton server instance configuration.
// Returns ErrInstanceExists if an instance already exists.
func (s *Store) CreateInstance(_ context.Context, name, version string) (*domain.Instance, error) {
	exists, err := s.exists(instanceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check instance existence: %w", err)
	}
	if exists {
		return nil, ErrInstanceExists
	}

	now := time.Now()
	instance := &domain.Instance{
		ID:         uuid.NewString(),
		Name:       name,
		Version:    version,
		Configured: false, // No admin password yet
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.set(instanceKey, instance); err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Server instance configuration created", "id", instance.ID)
	}

	return instance, nil
}

// UpdateInstance updates the server instance configuration.
func (s *Store) UpdateInstance(ctx context.Context, instance *domain.Instance) error {
	if _, err := s.GetInstance(ctx); err != nil {
		return err
	}

	instance.UpdatedAt = time.Now()
	if err := s.set(instanceKey, instance); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}

// GetAdmin retrieves the gate credential.
// Returns ErrAdminNotFound if the password has not been set.
func (s *Store) GetAdmin(_ context.Context) (*domain.Admin, error) {
	var admin domain.Admin

	if err := s.get(adminKey, &admin); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin credential: %w", err)
	}

	return &admin, nil
}

// SetAdmin stores the gate credential, replacing any previous one.
func (s *Store) SetAdmin(_ context.Context, admin *domain.Admin) error {
	admin.UpdatedAt = time.Now()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = admin.UpdatedAt
	}

	if err := s.set(adminKey, admin); err != nil {
		return fmt.Errorf("failed to save admin credential: %w", err)
	}
	return nil
}
