package nve

import (
	"context"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

// FloodWarnings fetches current flood warnings for a county.
func (c *Client) FloodWarnings(ctx context.Context, countyID int) ([]domain.CountyWarning, error) {
	body, err := c.fetchFirst(ctx, "flood", []string{c.resolver.FloodURL(countyID)}, nil)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeCountyWarnings(body.Items), nil
}

// LandslideWarnings fetches landslide warnings for a county and date range.
func (c *Client) LandslideWarnings(ctx context.Context, countyID int, from, to time.Time) ([]domain.CountyWarning, error) {
	body, err := c.fetchFirst(ctx, "landslide", []string{c.resolver.LandslideURL(countyID, c.lang, from, to)}, nil)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeCountyWarnings(body.Items), nil
}
