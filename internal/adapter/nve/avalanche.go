package nve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

var errNoRegions = errors.New("not an array or empty")

// Warnings fetches summary warnings for one region and date range and
// returns them normalized. An empty list is a successful "no data" answer; a
// lone JSON object moves on to the next candidate.
func (c *Client) Warnings(ctx context.Context, regionID int, from, to time.Time) ([]domain.WarningRecord, error) {
	body, err := c.fetchFirst(ctx, "warnings", c.resolver.WarningCandidates(regionID, c.lang, from, to), requireList)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeWarnings(regionID, body.Items), nil
}

// Details fetches detailed warnings, including avalanche problems.
func (c *Client) Details(ctx context.Context, regionID int, from, to time.Time) ([]domain.ForecastDetail, error) {
	body, err := c.fetchFirst(ctx, "details", c.resolver.DetailCandidates(regionID, c.lang, from, to), requireList)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ForecastDetail, 0, len(body.Items))
	for _, item := range body.Items {
		out = append(out, domain.ParseDetail(regionID, item))
	}
	return out, nil
}

// Regions discovers the forecast regions. A candidate only counts when it
// returns a JSON list with at least one usable region.
func (c *Client) Regions(ctx context.Context) ([]domain.Region, error) {
	var regions []domain.Region
	_, err := c.fetchFirst(ctx, "regions", c.resolver.RegionCandidates(), func(b Body) error {
		if b.Kind != KindJSON {
			return fmt.Errorf("%s body: %w", b.Kind, errNoRegions)
		}
		regions = domain.NormalizeRegions(b.Items)
		if len(regions) == 0 {
			return errNoRegions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regions, nil
}
