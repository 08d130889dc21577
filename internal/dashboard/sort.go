package dashboard

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bissquit/firemap/internal/domain"
)

// SortIncidents orders incidents in place: most crews first, then latest
// time of day first. Ties beyond that keep no particular order.
// All times are parsed up front so a bad one fails the sort without
// leaving the slice half-ordered.
func SortIncidents(incidents []domain.Incident) error {
	keys := make([]sortKey, len(incidents))
	for i, inc := range incidents {
		m, err := inc.MinuteOfDay()
		if err != nil {
			return fmt.Errorf("sort incidents: %w", err)
		}
		keys[i] = sortKey{incident: inc, minute: m}
	}

	slices.SortFunc(keys, func(a, b sortKey) int {
		if c := cmp.Compare(b.incident.CrewCount, a.incident.CrewCount); c != 0 {
			return c
		}
		return cmp.Compare(b.minute, a.minute)
	})

	for i, k := range keys {
		incidents[i] = k.incident
	}
	return nil
}

type sortKey struct {
	incident domain.Incident
	minute   int
}
