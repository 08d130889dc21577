package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/bissquit/firemap/internal/leaflet"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// DOM ids the page and the map scene agree on.
const (
	ListContainerID = "incidents-list"
	MapContainerID  = "map"
)

// Card is the display form of one incident.
type Card struct {
	Type           string `json:"type"`
	Label          string `json:"label"`
	Location       string `json:"location"`
	Time           string `json:"time"`
	CrewCount      int    `json:"crew_count"`
	Phase          string `json:"phase"`
	HasCoordinates bool   `json:"has_coordinates"`
}

var upperCaser = cases.Upper(language.Catalan)

// NewCard builds the card for an incident; the label is the uppercased type.
func NewCard(inc domain.Incident) Card {
	_, geocoded := inc.Coordinates()
	return Card{
		Type:           inc.Type,
		Label:          upperCaser.String(inc.Type),
		Location:       inc.Location,
		Time:           inc.Time,
		CrewCount:      inc.CrewCount,
		Phase:          inc.Phase,
		HasCoordinates: geocoded,
	}
}

// Renderer renders dashboard fragments and the page from embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all dashboard templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range []string{"cards", "message", "popup", "page"} {
		filename := fmt.Sprintf("templates/%s.html.tmpl", name)
		tmpl, err := template.New(name).ParseFS(templatesFS, filename)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl.Lookup(name + ".html.tmpl")
	}

	return r, nil
}

func (r *Renderer) execute(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Cards renders one block per card, in order.
func (r *Renderer) Cards(cards []Card) (template.HTML, error) {
	out, err := r.execute("cards", cards)
	return template.HTML(out), err
}

// Message renders a single status paragraph.
func (r *Renderer) Message(level MessageLevel, text string) (template.HTML, error) {
	out, err := r.execute("message", struct {
		Level MessageLevel
		Text  string
	}{level, text})
	return template.HTML(out), err
}

// Popup renders the marker popup for an incident.
func (r *Renderer) Popup(card Card) (string, error) {
	return r.execute("popup", card)
}

// PageData feeds the page template.
type PageData struct {
	Title         string
	ListContainer string
	MapContainer  string
	ListHTML      template.HTML
	Scene         leaflet.Scene
}

// Page renders the full dashboard document.
func (r *Renderer) Page(data PageData) ([]byte, error) {
	tmpl := r.templates["page"]
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template page: %w", err)
	}
	return buf.Bytes(), nil
}
