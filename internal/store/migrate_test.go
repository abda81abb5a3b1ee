package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/basket", migrateURL("postgres://u:p@db:5432/basket"))
	require.Equal(t, "pgx5://db/basket", migrateURL("postgresql://db/basket"))
	require.Equal(t, "pgx5://db/basket", migrateURL("pgx5://db/basket"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
