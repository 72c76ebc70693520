// Package cache holds the activity cache: the last known activity per
// (region, query shape). Entries never expire; callers clear them explicitly.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

// Key identifies one cached activity.
type Key struct {
	RegionID int
	Tag      string
}

func (k Key) String() string {
	return strconv.Itoa(k.RegionID) + "|" + k.Tag
}

// RangeTag describes a fixed date-range query.
func RangeTag(from, to time.Time) string {
	return "range:" + from.Format(domain.DateLayout) + ":" + to.Format(domain.DateLayout)
}

// LatestTag describes a "newest warning in the last N months" query.
func LatestTag(months int) string {
	return "latest:" + strconv.Itoa(months)
}

// EventsTag describes an "observations in the last N days" query.
func EventsTag(days int) string {
	return "events:" + strconv.Itoa(days)
}

// Kind returns the query shape of a tag, the part before the first colon.
func Kind(tag string) string {
	kind, _, _ := strings.Cut(tag, ":")
	return kind
}

// Store is an activity cache backend. Set replaces the whole entry for a key.
type Store interface {
	Get(ctx context.Context, key Key) (domain.Activity, bool, error)
	Set(ctx context.Context, key Key, entry domain.Activity) error
	Delete(ctx context.Context, key Key) error
	Clear(ctx context.Context) error
}
