package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// CreateSession creates a new client session.
func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	key := []byte(sessionPrefix + session.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check session exists: %w", err)
	}
	if exists {
		return errors.New("session already exists")
	}

	tokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create refresh token index
		return txn.Set(tokenKey, []byte(session.ID))
	})
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	key := []byte(sessionPrefix + id)

	var session domain.Session
	if err := s.get(key, &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
// This is used during the token refresh flow.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	tokenKey := []byte(sessionByTokenPrefix + tokenHash)

	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}

	return s.GetSession(ctx, sessionID)
}

// UpdateSession updates an existing session (used for token rotation and last seen).
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	key := []byte(sessionPrefix + session.ID)

	// Get old session for token index updates
	oldSession, err := s.GetSession(ctx, session.ID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Update token index if token changed (rotation)
		if oldSession.RefreshTokenHash != session.RefreshTokenHash {
			oldTokenKey := []byte(sessionByTokenPrefix + oldSession.RefreshTokenHash)
			if err := txn.Delete(oldTokenKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			newTokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)
			if err := txn.Set(newTokenKey, []byte(session.ID)); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteSession deletes a session (logout) along with its dataset snapshot.
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	key := []byte(sessionPrefix + sessionID)

	// Get session data (even if expired) to clean up indices
	var session domain.Session
	if err := s.get(key, &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get session for deletion: %w", err)
	}

	tokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)
	datasetKey := []byte(datasetPrefix + sessionID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}

		if err := txn.Delete(tokenKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Delete(datasetKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// DeleteExpiredSessions removes all expired sessions (cleanup job).
func (s *Store) DeleteExpiredSessions(_ context.Context) (int, error) {
	prefix := []byte(sessionPrefix)
	var expiredIDs []string

	// First pass: find expired sessions
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var session domain.Session
				if unmarshalErr := json.Unmarshal(val, &session); unmarshalErr != nil {
					// Skip malformed sessions - log but don't fail
					//nolint:nilerr // Intentionally returning nil to continue iteration
					return nil
				}

				if session.IsExpired() {
					expiredIDs = append(expiredIDs, session.ID)
				}

				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	// Second pass: delete expired sessions
	for _, sessionID := range expiredIDs {
		if err := s.DeleteSession(context.Background(), sessionID); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to delete expired session", "session_id", sessionID, "error", err)
			}
		}
	}

	return len(expiredIDs), nil
}
