// Package postgres provides the PostgreSQL implementation of the incident archive.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/firemap/internal/archive"
	"github.com/bissquit/firemap/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements archive.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const upsertSightingQuery = `
	INSERT INTO incident_sightings (
		object_id, tipo, ubicacion, fase, dotaciones, max_dotaciones,
		latitude, longitude, reported_at, first_seen_at, last_seen_at
	) VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9, $9)
	ON CONFLICT (object_id) DO UPDATE SET
		tipo           = EXCLUDED.tipo,
		ubicacion      = EXCLUDED.ubicacion,
		fase           = EXCLUDED.fase,
		dotaciones     = EXCLUDED.dotaciones,
		max_dotaciones = GREATEST(incident_sightings.max_dotaciones, EXCLUDED.dotaciones),
		latitude       = COALESCE(EXCLUDED.latitude, incident_sightings.latitude),
		longitude      = COALESCE(EXCLUDED.longitude, incident_sightings.longitude),
		reported_at    = EXCLUDED.reported_at,
		last_seen_at   = EXCLUDED.last_seen_at
`

// UpsertSightings inserts new incidents and refreshes known ones in one batch.
func (r *Repository) UpsertSightings(ctx context.Context, incidents []domain.Incident, seenAt time.Time) error {
	batch := &pgx.Batch{}
	for _, inc := range incidents {
		var lat, lon *float64
		if p, ok := inc.Coordinates(); ok {
			lat, lon = &p.Lat, &p.Lng
		}
		batch.Queue(upsertSightingQuery,
			inc.ID,
			inc.Type,
			inc.Location,
			inc.Phase,
			inc.CrewCount,
			lat,
			lon,
			time.UnixMilli(inc.Timestamp).UTC(),
			seenAt,
		)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert sightings: %w", err)
	}
	return nil
}

// ListRecent returns sightings ordered by last seen, then report time, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]archive.Sighting, error) {
	query := `
		SELECT
			object_id, tipo, ubicacion, fase, dotaciones, max_dotaciones,
			latitude, longitude, reported_at, first_seen_at, last_seen_at
		FROM incident_sightings
		ORDER BY last_seen_at DESC, reported_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sightings: %w", err)
	}
	defer rows.Close()

	sightings := make([]archive.Sighting, 0)
	for rows.Next() {
		var (
			s        archive.Sighting
			lat, lon *float64
		)
		if err := rows.Scan(
			&s.ObjectID,
			&s.Type,
			&s.Location,
			&s.Phase,
			&s.CrewCount,
			&s.MaxCrewCount,
			&lat,
			&lon,
			&s.ReportedAt,
			&s.FirstSeenAt,
			&s.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan sighting: %w", err)
		}
		if lat != nil && lon != nil {
			s.LatLon = []float64{*lat, *lon}
		}
		sightings = append(sightings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sightings: %w", err)
	}

	return sightings, nil
}
