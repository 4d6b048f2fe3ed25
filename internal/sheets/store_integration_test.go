//go:build integration

package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("sheets"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, PostgresBackend, dsn)
	require.NoError(t, err)
	defer store.Close()

	rep := weeklyReport(t, date(5, 15), date(5, 28), date(5, 16), date(5, 24))
	_, err = store.Upsert(ctx, "Throughput", rep)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "Throughput", rep)
	require.NoError(t, err)

	rows, err := store.Rows(ctx, "Throughput")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Week", "Completed"},
		{"2016-05-15", "1"},
		{"2016-05-22", "1"},
	}, rows)
}
