package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/kasir?sslmode=disable", migrateURL("postgres://u:p@localhost:5432/kasir?sslmode=disable"))
	require.Equal(t, "pgx5://localhost/kasir", migrateURL("postgresql://localhost/kasir"))
	require.Equal(t, "pgx5://localhost/kasir", migrateURL("pgx5://localhost/kasir"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.Contains(t, entries, "migrations/000001_init.up.sql")
	require.Contains(t, entries, "migrations/000001_init.down.sql")
}
