package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_ReplacesContents(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	l := NewList(r)

	l.ShowLoading()
	assert.Equal(t, ListLoading, l.State().Kind)
	assert.Contains(t, string(l.HTML()), LoadingMessage)

	l.ShowCards([]Card{{Label: "URBÀ", Location: "Sabadell", Time: "12:00", CrewCount: 4}})
	assert.Equal(t, ListCards, l.State().Kind)
	assert.Contains(t, string(l.HTML()), "Sabadell")
	assert.NotContains(t, string(l.HTML()), LoadingMessage)

	l.ShowMessage(LevelInfo, NoIncidentsMessage)
	state := l.State()
	assert.Equal(t, ListMessage, state.Kind)
	assert.Empty(t, state.Cards)
	assert.Equal(t, `<p class="message message-info">No recent incidents found.</p>`, string(l.HTML()))
}
