package dashboard

import (
	"html/template"
	"log/slog"
	"sync"
)

// User-facing list messages.
const (
	LoadingMessage     = "Loading incidents..."
	NoIncidentsMessage = "No recent incidents found."
)

// ListKind says what the list container currently shows.
type ListKind string

// List kinds.
const (
	ListLoading ListKind = "loading"
	ListCards   ListKind = "cards"
	ListMessage ListKind = "message"
)

// MessageLevel styles a list message.
type MessageLevel string

// Message levels.
const (
	LevelInfo  MessageLevel = "info"
	LevelError MessageLevel = "error"
)

// ListState is the content of the list container.
type ListState struct {
	Kind    ListKind     `json:"kind"`
	Level   MessageLevel `json:"level,omitempty"`
	Message string       `json:"message,omitempty"`
	Cards   []Card       `json:"cards,omitempty"`
}

// ListContainer receives what the controller wants displayed. Each Show call
// replaces the previous contents.
type ListContainer interface {
	ShowLoading()
	ShowMessage(level MessageLevel, text string)
	ShowCards(cards []Card)
	State() ListState
	HTML() template.HTML
}

var _ ListContainer = (*List)(nil)

// List is the server-side list container: it keeps the state and its HTML.
type List struct {
	renderer *Renderer

	mu    sync.RWMutex
	state ListState
	html  template.HTML
}

// NewList creates an empty list container.
func NewList(renderer *Renderer) *List {
	return &List{renderer: renderer, state: ListState{Kind: ListMessage, Level: LevelInfo}}
}

// ShowLoading shows the loading placeholder.
func (l *List) ShowLoading() {
	l.set(ListState{Kind: ListLoading, Level: LevelInfo, Message: LoadingMessage})
}

// ShowMessage replaces the list with a single message.
func (l *List) ShowMessage(level MessageLevel, text string) {
	l.set(ListState{Kind: ListMessage, Level: level, Message: text})
}

// ShowCards replaces the list with one card per incident.
func (l *List) ShowCards(cards []Card) {
	l.set(ListState{Kind: ListCards, Cards: cards})
}

func (l *List) set(state ListState) {
	var (
		html template.HTML
		err  error
	)
	if state.Kind == ListCards {
		html, err = l.renderer.Cards(state.Cards)
	} else {
		html, err = l.renderer.Message(state.Level, state.Message)
	}
	if err != nil {
		slog.Error("failed to render incident list", "kind", state.Kind, "error", err)
		html = template.HTML("<p>" + template.HTMLEscapeString(state.Message) + "</p>")
	}

	l.mu.Lock()
	l.state = state
	l.html = html
	l.mu.Unlock()
}

// State returns the current contents.
func (l *List) State() ListState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// HTML returns the rendered contents.
func (l *List) HTML() template.HTML {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.html
}
