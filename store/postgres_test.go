package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Seednode/tete/round"
)

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a container runtime")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tete"),
		postgres.WithUsername("tete"),
		postgres.WithPassword("tete"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := OpenPostgres(ctx, url, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	exercise(t, pg)

	t.Run("migrations are idempotent", func(t *testing.T) {
		again, err := OpenPostgres(ctx, url, zerolog.Nop())
		require.NoError(t, err)
		defer again.Close()

		score, ok := again.Best("animals", round.ModeNormal)
		assert.True(t, ok)
		assert.Equal(t, 6, score)
	})
}
