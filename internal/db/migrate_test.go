package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := EmbeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.up.sql", names[0])

	b, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	sql := string(b)
	for _, table := range []string{"banks", "transactions", "audit_logs"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestUpFilesSortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.up.sql":   {Data: []byte("")},
		"migrations/0001_a.up.sql":   {Data: []byte("")},
		"migrations/0001_a.down.sql": {Data: []byte("")},
		"migrations/README.md":       {Data: []byte("")},
	}
	names, err := upFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, names)
}
