package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	v, err := db.SchemaVersion(ctx)
	require.NoError(t, err)

	all, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, all[len(all)-1].version, v)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/jobs.db"

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO jobs (job_id, run_id, type, status, input_data, created_at)
		VALUES ('a', 'r', 'job1', 'pending', '{}', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&n))
	assert.Equal(t, 1, n, "reopening must not re-run migrations")
}

func TestLoadMigrations_Ordered(t *testing.T) {
	all, err := loadMigrations()
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].version, all[i].version)
	}
}
