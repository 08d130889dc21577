// Package archive keeps a history of every incident the feed has published.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/bissquit/firemap/internal/domain"
)

// History limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ErrInvalidLimit is returned for a history limit outside 1..MaxHistoryLimit.
var ErrInvalidLimit = errors.New("limit must be between 1 and 500")

// Sighting is the archived state of one incident, keyed by its upstream object id.
type Sighting struct {
	ObjectID     int64     `json:"object_id"`
	Type         string    `json:"tipo"`
	Location     string    `json:"ubicacion"`
	Phase        string    `json:"fase"`
	CrewCount    int       `json:"dotaciones"`
	MaxCrewCount int       `json:"max_dotaciones"`
	LatLon       []float64 `json:"lat_lon,omitempty"`
	ReportedAt   time.Time `json:"reported_at"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Repository stores sightings.
type Repository interface {
	UpsertSightings(ctx context.Context, incidents []domain.Incident, seenAt time.Time) error
	ListRecent(ctx context.Context, limit int) ([]Sighting, error)
}

// Service records feed builds and serves the history.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new archive service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordSightings archives a freshly built feed. Incidents without an
// upstream id cannot be matched across builds and are skipped.
func (s *Service) RecordSightings(ctx context.Context, incidents []domain.Incident) error {
	keyed := make([]domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.ID != 0 {
			keyed = append(keyed, inc)
		}
	}
	if len(keyed) == 0 {
		return nil
	}
	return s.repo.UpsertSightings(ctx, keyed, s.now().UTC())
}

// History returns the most recently seen sightings, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Sighting, error) {
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, ErrInvalidLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
