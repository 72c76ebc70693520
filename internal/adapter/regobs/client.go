// Package regobs searches field observations registered in Regobs.
package regobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
)

const (
	source        = "regobs"
	searchPath    = "/Registration/Search"
	geoHazardSnow = 10
	pageSize      = 100
	maxBodyBytes  = 8 << 20
)

// Client implements observation search against the Regobs API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Regobs client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger,
		metrics:    metrics,
	}
}

type searchRequest struct {
	SelectedRegionIds []int  `json:"SelectedRegionIds"`
	GeoHazardIds      []int  `json:"GeoHazardIds"`
	DateFrom          string `json:"DateFrom"`
	DateTo            string `json:"DateTo"`
	PageSize          int    `json:"PageSize"`
	Offset            int    `json:"Offset"`
}

// Search returns snow observations registered in the given regions between
// the start of from and the end of to, newest first.
func (c *Client) Search(ctx context.Context, regionIDs []int, from, to time.Time) ([]domain.Observation, error) {
	payload, err := json.Marshal(searchRequest{
		SelectedRegionIds: regionIDs,
		GeoHazardIds:      []int{geoHazardSnow},
		DateFrom:          from.Format(domain.DateLayout) + "T00:00:00Z",
		DateTo:            to.Format(domain.DateLayout) + "T23:59:59Z",
		PageSize:          pageSize,
		Offset:            0,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	u := c.baseURL + searchPath
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.post(reqCtx, u, payload)
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var httpErr *domain.HTTPError
		switch {
		case errors.As(err, &httpErr):
			c.metrics.FetchAttempts.WithLabelValues(source, "http_error").Inc()
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			c.metrics.FetchAttempts.WithLabelValues(source, "timeout").Inc()
			return nil, &domain.TimeoutError{URL: u, Timeout: c.timeout}
		default:
			c.metrics.FetchAttempts.WithLabelValues(source, "transport_error").Inc()
		}
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		c.metrics.FetchAttempts.WithLabelValues(source, "format_error").Inc()
		return nil, &domain.FormatError{URL: u, Snippet: domain.Snippet(string(raw)), Err: err}
	}
	c.metrics.FetchAttempts.WithLabelValues(source, "success").Inc()

	fields := make([]domain.Fields, len(items))
	for i, item := range items {
		fields[i] = item
	}
	obs := domain.NormalizeObservations(fields)
	c.logger.Debug("regobs search", "regions", regionIDs, "registrations", len(items), "observations", len(obs))
	return obs, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("regobs search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{URL: url, Status: resp.StatusCode, Snippet: domain.Snippet(string(raw))}
	}
	return raw, nil
}
