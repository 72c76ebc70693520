// Package hazard answers forecast queries by composing the upstream sources,
// the normalizer, the seasonal aggregator and the activity cache.
package hazard

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/cache"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ErrNoForecast is returned when a detail query finds no published forecast.
var ErrNoForecast = errors.New("no forecast published")

// ErrObservationsDisabled is returned by Events when no observation source is set.
var ErrObservationsDisabled = errors.New("observation search is not configured")

// landslideDays is the default look-ahead for county landslide warnings.
const landslideDays = 3

// writeStripes is the number of locks cache writes are spread over.
const writeStripes = 64

// AvalancheSource fetches normalized avalanche forecasts.
type AvalancheSource interface {
	Warnings(ctx context.Context, regionID int, from, to time.Time) ([]domain.WarningRecord, error)
	Details(ctx context.Context, regionID int, from, to time.Time) ([]domain.ForecastDetail, error)
	Regions(ctx context.Context) ([]domain.Region, error)
}

// CountySource fetches county-level flood and landslide warnings.
type CountySource interface {
	FloodWarnings(ctx context.Context, countyID int) ([]domain.CountyWarning, error)
	LandslideWarnings(ctx context.Context, countyID int, from, to time.Time) ([]domain.CountyWarning, error)
}

// ObservationSource searches field observations.
type ObservationSource interface {
	Search(ctx context.Context, regionIDs []int, from, to time.Time) ([]domain.Observation, error)
}

// Sources groups the upstream clients. Observations may be nil.
type Sources struct {
	Avalanche    AvalancheSource
	County       CountySource
	Observations ObservationSource
}

// Service answers region and county queries.
type Service struct {
	src         Sources
	store       cache.Store
	logger      *slog.Logger
	metrics     *observability.Metrics
	concurrency int

	// writeLocks serialize the cancellation check and Set per key, so a
	// cancelled request cannot overwrite the entry of the one that replaced it.
	writeLocks [writeStripes]sync.Mutex
}

// NewService creates a Service. concurrency bounds multi-region fan-out.
func NewService(src Sources, store cache.Store, logger *slog.Logger, metrics *observability.Metrics, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		src:         src,
		store:       store,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// TimeSeries returns one point per day in [from, to] and records the outcome
// in the activity cache under the range tag.
func (s *Service) TimeSeries(ctx context.Context, regionID int, from, to time.Time) ([]domain.SeriesPoint, error) {
	from, to = domain.StartOfDay(from), domain.StartOfDay(to)
	if from.After(to) {
		return nil, &domain.InvalidRangeError{From: from.Format(domain.DateLayout), To: to.Format(domain.DateLayout)}
	}

	tag := cache.RangeTag(from, to)
	records, err := s.src.Avalanche.Warnings(ctx, regionID, from, to)
	if err != nil {
		s.remember(ctx, "series", domain.FailedActivity(regionID, tag, err))
		return nil, err
	}
	s.remember(ctx, "series", domain.LatestActivity(regionID, tag, records))
	return domain.BuildSeries(records, from, to)
}

// Winters returns danger-level tallies for the most recent count winters,
// newest first.
func (s *Service) Winters(ctx context.Context, regionID, count int) ([]domain.WinterBucket, error) {
	buckets, err := domain.AggregateWinters(ctx, regionID, count, s.src.Avalanche.Warnings)
	s.countOutcome("winters", err, len(buckets))
	return buckets, err
}

// Latest reports the newest published warning in the last months. A cached
// ok or nodata entry is returned unless refresh is set; error entries are
// always refetched. The returned error is only set when ctx ends.
func (s *Service) Latest(ctx context.Context, regionID, months int, refresh bool) (domain.Activity, error) {
	key := cache.Key{RegionID: regionID, Tag: cache.LatestTag(months)}
	return s.cached(ctx, key, refresh, func() domain.Activity {
		to := domain.Today()
		from := to.AddDate(0, -months, 0)
		records, err := s.src.Avalanche.Warnings(ctx, regionID, from, to)
		if err != nil {
			return domain.FailedActivity(regionID, key.Tag, err)
		}
		return domain.LatestActivity(regionID, key.Tag, records)
	})
}

// Events summarizes observations registered in the last days.
func (s *Service) Events(ctx context.Context, regionID, days int, refresh bool) (domain.Activity, error) {
	if s.src.Observations == nil {
		return domain.Activity{}, ErrObservationsDisabled
	}
	key := cache.Key{RegionID: regionID, Tag: cache.EventsTag(days)}
	return s.cached(ctx, key, refresh, func() domain.Activity {
		to := domain.Today()
		from := to.AddDate(0, 0, -days)
		obs, err := s.src.Observations.Search(ctx, []int{regionID}, from, to)
		if err != nil {
			return domain.FailedActivity(regionID, key.Tag, err)
		}
		return domain.EventActivity(regionID, key.Tag, obs)
	})
}

// Observations returns the observations registered in the last days.
func (s *Service) Observations(ctx context.Context, regionID, days int) ([]domain.Observation, error) {
	if s.src.Observations == nil {
		return nil, ErrObservationsDisabled
	}
	to := domain.Today()
	return s.src.Observations.Search(ctx, []int{regionID}, to.AddDate(0, 0, -days), to)
}

// LatestMany runs Latest for every region with bounded concurrency. Results
// are in input order; one region failing only marks its own entry.
func (s *Service) LatestMany(ctx context.Context, regionIDs []int, months int, refresh bool) ([]domain.Activity, error) {
	out := make([]domain.Activity, len(regionIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range regionIDs {
		g.Go(func() error {
			a, err := s.Latest(gctx, id, months, refresh)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Detail returns today's detailed forecast, falling back to the first record
// of the today-tomorrow window.
func (s *Service) Detail(ctx context.Context, regionID int) (domain.ForecastDetail, error) {
	today := domain.Today()
	details, err := s.src.Avalanche.Details(ctx, regionID, today, today.AddDate(0, 0, 1))
	if err != nil {
		s.countOutcome("detail", err, 0)
		return domain.ForecastDetail{}, err
	}
	d, ok := domain.PickForDay(details, today.Format(domain.DateLayout))
	s.countOutcome("detail", nil, len(details))
	if !ok {
		return domain.ForecastDetail{}, ErrNoForecast
	}
	return d, nil
}

// Regions lists the forecast regions. When discovery fails the built-in
// regions are returned instead.
func (s *Service) Regions(ctx context.Context) ([]domain.Region, error) {
	regions, err := s.src.Avalanche.Regions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("region discovery failed, using built-in regions", "error", err)
		s.countOutcome("regions", err, 0)
		return domain.KnownRegions(), nil
	}
	s.countOutcome("regions", nil, len(regions))
	return regions, nil
}

// Flood returns current flood warnings for a county.
func (s *Service) Flood(ctx context.Context, countyID int) ([]domain.CountyWarning, error) {
	warnings, err := s.src.County.FloodWarnings(ctx, countyID)
	s.countOutcome("flood", err, len(warnings))
	return warnings, err
}

// Landslide returns landslide warnings for a county. A zero from defaults to
// today and a zero to defaults to three days after from.
func (s *Service) Landslide(ctx context.Context, countyID int, from, to time.Time) ([]domain.CountyWarning, error) {
	if from.IsZero() {
		from = domain.Today()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, landslideDays)
	}
	from, to = domain.StartOfDay(from), domain.StartOfDay(to)
	if from.After(to) {
		return nil, &domain.InvalidRangeError{From: from.Format(domain.DateLayout), To: to.Format(domain.DateLayout)}
	}
	warnings, err := s.src.County.LandslideWarnings(ctx, countyID, from, to)
	s.countOutcome("landslide", err, len(warnings))
	return warnings, err
}

// Activity returns a cached entry without fetching.
func (s *Service) Activity(ctx context.Context, regionID int, tag string) (domain.Activity, bool, error) {
	return s.store.Get(ctx, cache.Key{RegionID: regionID, Tag: tag})
}

// ForgetActivity removes one cached entry.
func (s *Service) ForgetActivity(ctx context.Context, regionID int, tag string) error {
	return s.store.Delete(ctx, cache.Key{RegionID: regionID, Tag: tag})
}

// ClearActivity empties the activity cache.
func (s *Service) ClearActivity(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// cached serves key from the store unless refresh is set or the entry is an
// error, otherwise calls fetch and stores the result. Nothing is stored when
// ctx ended during the fetch.
func (s *Service) cached(ctx context.Context, key cache.Key, refresh bool, fetch func() domain.Activity) (domain.Activity, error) {
	kind := cache.Kind(key.Tag)
	if !refresh {
		entry, ok, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Warn("activity cache read failed", "key", key.String(), "error", err)
		}
		if ok && entry.Status != domain.StatusError {
			s.metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return entry, nil
		}
		s.metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	}

	entry := fetch()
	if !s.remember(ctx, kind, entry) {
		return domain.Activity{}, ctx.Err()
	}
	return entry, nil
}

// remember stores entry and counts its outcome. It reports false, writing
// nothing, when ctx has ended. The check and the write happen under the key's
// lock: a request cancelled before its replacement started either writes
// first or sees its cancellation.
func (s *Service) remember(ctx context.Context, query string, entry domain.Activity) bool {
	key := cache.Key{RegionID: entry.RegionID, Tag: entry.Tag}
	mu := s.writeLock(key)
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	s.metrics.QueryOutcomes.WithLabelValues(query, string(entry.Status)).Inc()
	if entry.Status == domain.StatusError {
		s.logger.Warn("query failed", "query", query, "region_id", entry.RegionID, "tag", entry.Tag, "error", entry.Note)
	}
	if err := s.store.Set(ctx, key, entry); err != nil {
		s.logger.Warn("activity cache write failed", "key", key.String(), "error", err)
	}
	return true
}

func (s *Service) writeLock(key cache.Key) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return &s.writeLocks[h.Sum32()%writeStripes]
}

func (s *Service) countOutcome(query string, err error, n int) {
	status := domain.StatusOK
	switch {
	case err != nil:
		status = domain.StatusError
	case n == 0:
		status = domain.StatusNoData
	}
	s.metrics.QueryOutcomes.WithLabelValues(query, string(status)).Inc()
}
