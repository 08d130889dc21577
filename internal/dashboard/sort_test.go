package dashboard

import (
	"testing"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortIncidents(t *testing.T) {
	tests := []struct {
		name     string
		input    []domain.Incident
		expected []string
	}{
		{
			name: "more crews first",
			input: []domain.Incident{
				{Location: "A", CrewCount: 3, Time: "10:00"},
				{Location: "B", CrewCount: 5, Time: "09:00"},
			},
			expected: []string{"B", "A"},
		},
		{
			name: "same crews, later time first",
			input: []domain.Incident{
				{Location: "A", CrewCount: 3, Time: "10:00"},
				{Location: "B", CrewCount: 3, Time: "14:30"},
			},
			expected: []string{"B", "A"},
		},
		{
			name: "mixed",
			input: []domain.Incident{
				{Location: "A", CrewCount: 1, Time: "23:59"},
				{Location: "B", CrewCount: 2, Time: "00:01"},
				{Location: "C", CrewCount: 2, Time: "7:05"},
				{Location: "D", CrewCount: 0, Time: "12:00"},
			},
			expected: []string{"C", "B", "A", "D"},
		},
		{
			name:     "empty",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, SortIncidents(tt.input))

			got := make([]string, 0, len(tt.input))
			for _, inc := range tt.input {
				got = append(got, inc.Location)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSortIncidents_BadTimeLeavesOrder(t *testing.T) {
	incidents := []domain.Incident{
		{Location: "A", CrewCount: 1, Time: "10:00"},
		{Location: "B", CrewCount: 5, Time: "ten"},
	}

	err := SortIncidents(incidents)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidClock)
	assert.Equal(t, "A", incidents[0].Location)
	assert.Equal(t, "B", incidents[1].Location)
}
