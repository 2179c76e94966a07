package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"nebulachat/internal/database"
)

// TestPostgresStorage runs the store suite against a real database.
// Set NEBULA_TEST_DATABASE_URL to a disposable database to enable it.
func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("NEBULA_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NEBULA_TEST_DATABASE_URL not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		db, err := database.Open(context.Background(), dsn)
		require.NoError(t, err)
		require.NoError(t, database.Migrate(db))
		_, err = db.Exec("TRUNCATE messages, typing_status, room_participants, rooms, users")
		require.NoError(t, err)

		s := NewPostgresStorage(db)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
