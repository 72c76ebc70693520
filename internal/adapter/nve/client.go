package nve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
)

const (
	source       = "nve"
	userAgent    = "hazard-data-service/1.0"
	maxBodyBytes = 8 << 20
)

// Client fetches NVE forecast resources, walking the resolver's candidate
// URLs until one answers with a usable body.
type Client struct {
	httpClient *http.Client
	resolver   Resolver
	lang       domain.Language
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	trace      func(url string, err error)
}

// NewClient creates an NVE client from the service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	lang, err := domain.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	style := LangNumeric
	if cfg.LangStyle == "code" {
		style = LangCode
	}

	return &Client{
		httpClient: &http.Client{},
		resolver: Resolver{
			BaseURL:          cfg.NVEBaseURL,
			LangStyle:        style,
			FloodVersion:     cfg.FloodAPIVersion,
			LandslideVersion: cfg.LandslideAPIVersion,
		},
		lang:    lang,
		timeout: cfg.FetchTimeout,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// SetTrace registers fn to be called with every candidate URL tried and its
// outcome (nil on success).
func (c *Client) SetTrace(fn func(url string, err error)) {
	c.trace = fn
}

// fetchRaw performs a single GET bounded by the client timeout and parses the
// body. Cancellation of ctx is returned as ctx.Err(), never as a timeout.
func (c *Client) fetchRaw(ctx context.Context, url string) (Body, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.get(reqCtx, url)
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return Body{}, ctx.Err()
		}
		var httpErr *domain.HTTPError
		switch {
		case errors.As(err, &httpErr):
			c.metrics.FetchAttempts.WithLabelValues(source, "http_error").Inc()
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			c.metrics.FetchAttempts.WithLabelValues(source, "timeout").Inc()
			return Body{}, &domain.TimeoutError{URL: url, Timeout: c.timeout}
		default:
			c.metrics.FetchAttempts.WithLabelValues(source, "transport_error").Inc()
		}
		return Body{}, err
	}

	body, err := ParseBody(text)
	if err != nil {
		c.metrics.FetchAttempts.WithLabelValues(source, "format_error").Inc()
		return Body{}, &domain.FormatError{URL: url, Snippet: domain.Snippet(text), Err: err}
	}

	c.metrics.FetchAttempts.WithLabelValues(source, "success").Inc()
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body from %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.HTTPError{URL: url, Status: resp.StatusCode, Snippet: domain.Snippet(string(raw))}
	}
	return string(raw), nil
}

// fetchFirst tries candidates in order and returns the first body that
// parses and passes accept. When every candidate fails the returned
// *domain.ResolutionError lists each attempt in order.
func (c *Client) fetchFirst(ctx context.Context, resource string, candidates []string, accept func(Body) error) (Body, error) {
	attempts := make([]domain.Attempt, 0, len(candidates))
	for _, u := range candidates {
		body, err := c.fetchRaw(ctx, u)
		if err == nil && accept != nil {
			err = accept(body)
		}
		if ctx.Err() != nil {
			return Body{}, ctx.Err()
		}
		if c.trace != nil {
			c.trace(u, err)
		}
		if err == nil {
			return body, nil
		}

		c.logger.Debug("candidate failed", "resource", resource, "url", u, "error", err)
		attempts = append(attempts, domain.Attempt{URL: u, Err: err})
	}

	c.metrics.CandidatesExhausted.WithLabelValues(resource).Inc()
	return Body{}, &domain.ResolutionError{Resource: resource, Attempts: attempts}
}
