package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// SaveDataset persists a session's dataset snapshot, replacing any
// previous one. Datasets are keyed by session so restarts can restore a
// session's working set, and session deletion drops it with the session.
func (s *Store) SaveDataset(_ context.Context, ds *domain.Dataset) error {
	if ds.SessionID == "" {
		return errors.New("dataset has no session")
	}

	key := []byte(datasetPrefix + ds.SessionID)
	if err := s.set(key, ds); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	return nil
}

// GetDataset retrieves the dataset snapshot owned by a session.
// Returns ErrDatasetNotFound if the session has not loaded one.
func (s *Store) GetDataset(_ context.Context, sessionID string) (*domain.Dataset, error) {
	key := []byte(datasetPrefix + sessionID)

	var ds domain.Dataset
	if err := s.get(key, &ds); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	return &ds, nil
}

// DeleteDataset removes a session's dataset snapshot.
func (s *Store) DeleteDataset(_ context.Context, sessionID string) error {
	if err := s.delete([]byte(datasetPrefix + sessionID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}
