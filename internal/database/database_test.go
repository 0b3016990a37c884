package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  string
	}

	tests := []testCase{
		{name: "Postgres", input: "postgres://u:p@db:5432/stock?sslmode=disable", want: "pgx5://u:p@db:5432/stock?sslmode=disable"},
		{name: "PostgreSQL", input: "postgresql://u:p@db/stock", want: "pgx5://u:p@db/stock"},
		{name: "AlreadyPgx5", input: "pgx5://u:p@db/stock", want: "pgx5://u:p@db/stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.input))
		})
	}
}

func TestMigrations_Paired(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.Len(t, downs, len(ups))
}

func TestMigrations_BatchInsertOrder(t *testing.T) {
	up, err := fs.ReadFile(migrations, "migrations/000002_batch_seq.up.sql")
	require.NoError(t, err)

	// batches sharing acquired_at are ordered by insertion
	assert.Contains(t, string(up), "seq BIGSERIAL")
	assert.Contains(t, string(up), "(product_id, acquired_at, seq)")
}
