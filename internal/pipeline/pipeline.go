package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const maxPublishAttempts = 3

// LatestQuerier reports the newest warning activity for a region.
type LatestQuerier interface {
	Latest(ctx context.Context, regionID, months int, refresh bool) (domain.Activity, error)
}

// SnapshotPublisher writes the committed snapshots of one cycle to a sink.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshots []domain.RegionSnapshot) error
}

// Poller refreshes the watched regions on a schedule and publishes what it
// commits.
type Poller struct {
	querier     LatestQuerier
	publisher   SnapshotPublisher
	board       *Board
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	regions     []int
	months      int
	concurrency int
	schedule    string
}

// New creates a Poller. Pass a nil publisher to only keep snapshots in memory.
func New(q LatestQuerier, pub SnapshotPublisher, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		querier:     q,
		publisher:   pub,
		board:       NewBoard(),
		logger:      logger,
		metrics:     metrics,
		regions:     cfg.WatchRegions,
		months:      cfg.LatestMonths,
		concurrency: max(cfg.PollConcurrency, 1),
		schedule:    cfg.PollSchedule,
	}
}

// CheckReadiness returns nil once the poller has completed a cycle.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not completed a cycle yet")
	}
	return nil
}

// Snapshots returns the latest committed snapshot of every watched region.
func (p *Poller) Snapshots() []domain.RegionSnapshot {
	return p.board.Snapshots()
}

// Run polls once immediately and then on every schedule tick until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() { p.runCycle(ctx) }); err != nil {
		return fmt.Errorf("poll schedule %q: %w", p.schedule, err)
	}

	p.logger.Info("poller started", "schedule", p.schedule, "regions", p.regions, "concurrency", p.concurrency)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	c.Start()
	p.runCycle(ctx)

	<-ctx.Done()
	p.logger.Info("poller stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	return nil
}

func (p *Poller) runCycle(ctx context.Context) {
	if err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("poll cycle failed", "error", err)
	}
}

// RunOnce refreshes every watched region, commits the results that are still
// current and publishes them.
func (p *Poller) RunOnce(ctx context.Context) error {
	cycleID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With("cycle_id", cycleID)

	results := make([]*domain.RegionSnapshot, len(p.regions))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range p.regions {
		g.Go(func() error {
			if snap, ok := p.pollRegion(ctx, logger, cycleID, id); ok {
				results[i] = &snap
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	committed := make([]domain.RegionSnapshot, 0, len(results))
	for _, r := range results {
		if r != nil {
			committed = append(committed, *r)
		}
	}
	p.metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	logger.Info("poll cycle complete", "regions", len(p.regions), "committed", len(committed), "duration", time.Since(start))

	if p.publisher == nil || len(committed) == 0 {
		return nil
	}
	return p.publish(ctx, logger, committed)
}

// pollRegion refreshes one view. It reports false when the result was
// superseded by a newer request for the same region.
func (p *Poller) pollRegion(ctx context.Context, logger *slog.Logger, cycleID string, regionID int) (domain.RegionSnapshot, bool) {
	vctx, gen := p.board.Begin(ctx, regionID)

	a, err := p.querier.Latest(vctx, regionID, p.months, true)
	if err != nil {
		if !p.board.Abandon(regionID, gen) {
			p.metrics.StaleDiscarded.Inc()
			logger.Debug("superseded request cancelled", "region_id", regionID)
		}
		return domain.RegionSnapshot{}, false
	}

	name, _ := domain.KnownRegionName(regionID)
	snap := domain.RegionSnapshot{RegionID: regionID, RegionName: name, Activity: a, CycleID: cycleID}
	if !p.board.Commit(regionID, gen, snap) {
		p.metrics.StaleDiscarded.Inc()
		logger.Debug("stale result discarded", "region_id", regionID)
		return domain.RegionSnapshot{}, false
	}
	return snap, true
}

// publish retries with exponential backoff: 200ms, doubling, capped at 5s.
func (p *Poller) publish(ctx context.Context, logger *slog.Logger, snaps []domain.RegionSnapshot) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for attempt := 1; ; attempt++ {
		err := p.publisher.Publish(ctx, snaps)
		if err == nil {
			p.metrics.SnapshotsPublished.Add(float64(len(snaps)))
			return nil
		}
		p.metrics.PublishErrors.Inc()
		logger.Error("publish snapshots failed", "error", err, "attempt", attempt, "count", len(snaps))

		if attempt == maxPublishAttempts || ctx.Err() != nil {
			return err
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
