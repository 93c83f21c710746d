package sessions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/lorekeeper/internal/client/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:sessionsrepo?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS state (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM state`)
	require.NoError(t, err)
	return db
}

func sampleSession() *models.Session {
	return &models.Session{
		UserID:     "u-1",
		Email:      "user@example.com",
		Token:      "tok-123",
		ExpiresAt:  time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC),
		RememberMe: true,
	}
}

func TestSQLiteRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSession()))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "user@example.com", got.Email)
	assert.Equal(t, "tok-123", got.Token)
	assert.True(t, got.RememberMe)
	assert.True(t, got.ExpiresAt.Equal(time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestSQLiteRepository_LoadEmpty(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteRepository_SaveReplaces(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSession()))

	second := sampleSession()
	second.UserID = "u-2"
	second.Email = "other@example.com"
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-2", got.UserID)
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSession()))
	require.NoError(t, repo.Delete(ctx))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting again is not an error
	require.NoError(t, repo.Delete(ctx))
}
