package repository

import (
	"context"
	"testing"
	"time"

	"cost-sage/internal/migrations"
	"cost-sage/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

// setupTestDatabase starts a throwaway Postgres, applies the migrations and
// returns a pool against it. Skipped with -short.
func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("costsage"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Up(pool, zap.NewNop()))
	return pool
}

func createTestUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &models.User{
		ID:        uuid.New(),
		Name:      "Test User",
		Email:     email,
		Password:  "hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}
