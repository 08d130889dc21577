//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	require.NoError(t, Migrate(container.ConnectionString))
	// Applying twice is a no-op.
	require.NoError(t, Migrate(container.ConnectionString))

	pool, err := pgxpool.New(ctx, container.ConnectionString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewRepository(pool)
}

func TestRepository_UpsertAndList(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	inc := domain.Incident{
		ID:        42,
		Type:      "forestal",
		Location:  "Bruc",
		Time:      "12:00",
		CrewCount: 6,
		Phase:     "Actiu",
		Timestamp: first.UnixMilli(),
	}
	inc.SetCoordinates(geo.LatLng{Lat: 41.58, Lng: 1.78})
	other := domain.Incident{ID: 43, Type: "urbà", Location: "Vic", CrewCount: 1, Phase: "Actiu", Timestamp: first.UnixMilli()}

	require.NoError(t, repo.UpsertSightings(ctx, []domain.Incident{inc, other}, first))

	later := first.Add(10 * time.Minute)
	inc.CrewCount = 2
	inc.Phase = "Controlat"
	require.NoError(t, repo.UpsertSightings(ctx, []domain.Incident{inc}, later))

	sightings, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sightings, 2)

	s := sightings[0]
	assert.Equal(t, int64(42), s.ObjectID)
	assert.Equal(t, 2, s.CrewCount)
	assert.Equal(t, 6, s.MaxCrewCount)
	assert.Equal(t, "Controlat", s.Phase)
	assert.True(t, s.FirstSeenAt.Equal(first))
	assert.True(t, s.LastSeenAt.Equal(later))
	assert.Equal(t, []float64{41.58, 1.78}, s.LatLon)

	assert.Equal(t, int64(43), sightings[1].ObjectID)
	assert.Nil(t, sightings[1].LatLon)

	limited, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
