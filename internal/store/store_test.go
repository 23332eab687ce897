package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestInstance_Lifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	_, err := st.GetInstance(ctx)
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	created, err := st.CreateInstance(ctx, "Test Server", "1.0.0")
	require.NoError(t, err)
	assert.False(t, created.Configured)

	_, err = st.CreateInstance(ctx, "Test Server", "1.0.0")
	assert.ErrorIs(t, err, ErrInstanceExists)

	created.Configured = true
	require.NoError(t, st.UpdateInstance(ctx, created))

	got, err := st.GetInstance(ctx)
	require.NoError(t, err)
	assert.True(t, got.Configured)
}

func TestAdmin_SetAndGet(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	_, err := st.GetAdmin(ctx)
	assert.ErrorIs(t, err, ErrAdminNotFound)

	require.NoError(t, st.SetAdmin(ctx, &domain.Admin{PasswordHash: "$argon2id$..."}))

	got, err := st.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$...", got.PasswordHash)
	assert.False(t, got.CreatedAt.IsZero())
}

func newTestSession(id, tokenHash string, ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id,
		RefreshTokenHash: tokenHash,
		CreatedAt:        now,
		LastSeenAt:       now,
		ExpiresAt:        now.Add(ttl),
	}
}

func TestSession_Lifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-1", "hash-1", time.Hour)
	require.NoError(t, st.CreateSession(ctx, sess))

	// Duplicate create is rejected.
	assert.Error(t, st.CreateSession(ctx, sess))

	got, err := st.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.RefreshTokenHash)

	byToken, err := st.GetSessionByRefreshToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byToken.ID)

	// Rotation: token index follows the new hash.
	got.RefreshTokenHash = "hash-2"
	require.NoError(t, st.UpdateSession(ctx, got))

	_, err = st.GetSessionByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	byToken, err = st.GetSessionByRefreshToken(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byToken.ID)

	require.NoError(t, st.DeleteSession(ctx, "sess-1"))
	_, err = st.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting a missing session is a no-op.
	assert.NoError(t, st.DeleteSession(ctx, "sess-1"))
}

func TestSession_Expired(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-old", "hash-old", -time.Minute)
	require.NoError(t, st.CreateSession(ctx, sess))

	_, err := st.GetSession(ctx, "sess-old")
	assert.ErrorIs(t, err, ErrSessionExpired)

	deleted, err := st.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestDataset_PerSessionSnapshot(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	_, err := st.GetDataset(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	ds := &domain.Dataset{
		ID:         "ds-1",
		SessionID:  "sess-1",
		Name:       "report.csv",
		Columns:    []string{"base", "checker"},
		BaseColumn: "base",
		Records: []domain.Record{
			{Index: 0, Fields: map[string]string{"base": "20221-US-LY", "checker": "Approved"}},
		},
		LoadedAt: time.Now(),
	}
	require.NoError(t, st.SaveDataset(ctx, ds))

	got, err := st.GetDataset(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "report.csv", got.Name)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "20221-US-LY", got.Records[0].Fields["base"])

	// Replacement is wholesale.
	ds2 := *ds
	ds2.ID = "ds-2"
	ds2.Name = "other.csv"
	require.NoError(t, st.SaveDataset(ctx, &ds2))

	got, err = st.GetDataset(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ds-2", got.ID)

	require.NoError(t, st.DeleteDataset(ctx, "sess-1"))
	_, err = st.GetDataset(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDeleteSession_DropsDataset(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-ds", "hash-ds", time.Hour)
	require.NoError(t, st.CreateSession(ctx, sess))
	require.NoError(t, st.SaveDataset(ctx, &domain.Dataset{ID: "ds-x", SessionID: "sess-ds"}))

	require.NoError(t, st.DeleteSession(ctx, "sess-ds"))

	_, err := st.GetDataset(ctx, "sess-ds")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
