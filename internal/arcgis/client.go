package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/firemap/internal/pkg/ctxlog"
	"github.com/go-resty/resty/v2"
)

// Config holds client settings.
type Config struct {
	LayerURL     string
	APIKey       string
	Limit        int
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// Client queries one FeatureServer layer.
type Client struct {
	config Config
	client *resty.Client
}

// NewClient creates a client. Transport errors and 500/502/503/504 responses
// are retried with exponential backoff.
func NewClient(config Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(config.LayerURL, "/")).
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.RetryWait).
		SetRetryMaxWaitTime(config.RetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			switch resp.StatusCode() {
			case http.StatusInternalServerError, http.StatusBadGateway,
				http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				return true
			}
			return false
		})

	return &Client{config: config, client: client}
}

// QueryFeatures returns the most recent interventions, newest first.
// If the layer rejects the municipality field the query is repeated once
// without it and the returned features have MunicipalityQueried unset.
func (c *Client) QueryFeatures(ctx context.Context) ([]Feature, error) {
	start := time.Now()

	features, err := c.query(ctx, fieldsWithMunicipality)
	if errors.Is(err, errInvalidQuery) {
		ctxlog.FromContext(ctx).Warn("arcgis rejected municipality field, retrying without it", "error", err)

		features, err = c.query(ctx, fieldsWithoutMunicipality)
		if err != nil {
			recordQuery("error", time.Since(start))
			return nil, fmt.Errorf("query features without municipality: %w", err)
		}
		recordQuery("fallback", time.Since(start))
		return features, nil
	}
	if err != nil {
		recordQuery("error", time.Since(start))
		return nil, fmt.Errorf("query features: %w", err)
	}

	for i := range features {
		features[i].MunicipalityQueried = true
	}
	recordQuery("success", time.Since(start))
	return features, nil
}

func (c *Client) query(ctx context.Context, fields []string) ([]Feature, error) {
	params := map[string]string{
		"f":                 "json",
		"where":             "1=1",
		"outFields":         strings.Join(fields, ","),
		"orderByFields":     FieldTimestamp + " DESC",
		"resultRecordCount": strconv.Itoa(c.config.Limit),
		"returnGeometry":    "true",
		"cacheHint":         "true",
	}
	if c.config.APIKey != "" {
		params["token"] = c.config.APIKey
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("request layer: %w", err)
	}

	if resp.StatusCode() == http.StatusBadRequest && strings.Contains(resp.String(), invalidQueryMessage) {
		return nil, fmt.Errorf("%w: HTTP %d", errInvalidQuery, resp.StatusCode())
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var body queryResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if body.Error != nil {
		if body.Error.invalidQuery() {
			return nil, fmt.Errorf("%w: %w", errInvalidQuery, body.Error)
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryRejected, body.Error)
	}

	slog.Debug("arcgis query completed", "features", len(body.Features), "fields", len(fields))
	return body.Features, nil
}
