package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	first, err := New(dbPath)
	require.NoError(t, err)
	user := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, first.CreateUser(context.Background(), user))
	require.NoError(t, first.Close())

	second, err := New(dbPath)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestForeignKeysEnforced(t *testing.T) {
	store := newTestStore(t)
	err := store.CreateBalance(context.Background(), &models.Balance{
		GroupID: "no-such-group", FromUser: "a", ToUser: "b", Amount: 100,
	})
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
