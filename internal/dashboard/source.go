package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

// IncidentsPath is the fixed feed endpoint, relative to the source base URL.
const IncidentsPath = "/api/get_incidents"

// Payload is the feed response: either incidents or an application error.
type Payload struct {
	Incidents []domain.Incident `json:"incidents" validate:"dive"`
	Error     string            `json:"error,omitempty"`
}

// Source fetches the incident feed.
type Source interface {
	Fetch(ctx context.Context) (*Payload, error)
}

// HTTPSource issues a single GET per Fetch. It never retries.
type HTTPSource struct {
	client    *resty.Client
	validator *validator.Validate
}

// NewHTTPSource creates a source for the feed served at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &HTTPSource{
		client:    client,
		validator: domain.NewValidator(),
	}
}

// Fetch requests the feed once and classifies failures:
// transport problems wrap ErrTransport, non-2xx statuses are *StatusError,
// undecodable or invalid bodies wrap ErrMalformedPayload.
func (s *HTTPSource) Fetch(ctx context.Context) (*Payload, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(IncidentsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode()}
	}

	var payload Payload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrMalformedPayload, err)
	}

	// An application error makes the incident list irrelevant.
	if payload.Error != "" {
		return &payload, nil
	}

	if err := s.validator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return &payload, nil
}
