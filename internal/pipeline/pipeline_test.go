package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
	"github.com/couchcryptid/hazard-data-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockQuerier struct {
	started chan int
	// block makes the first call for a region wait for cancellation.
	block map[int]bool
	mu    sync.Mutex
	seen  map[int]int
}

func (m *mockQuerier) Latest(ctx context.Context, regionID, months int, refresh bool) (domain.Activity, error) {
	m.mu.Lock()
	if m.seen == nil {
		m.seen = make(map[int]int)
	}
	m.seen[regionID]++
	first := m.seen[regionID] == 1
	m.mu.Unlock()

	if m.started != nil {
		m.started <- regionID
	}
	if first && m.block[regionID] {
		<-ctx.Done()
		return domain.Activity{}, ctx.Err()
	}
	if !refresh {
		return domain.Activity{}, errors.New("poller must always refresh")
	}
	return domain.Activity{
		RegionID:    regionID,
		Tag:         fmt.Sprintf("latest:%d", months),
		Status:      domain.StatusOK,
		LastDate:    "2024-03-22",
		DangerLevel: domain.DangerModerate,
	}, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	failTimes int
	calls     int
	published [][]domain.RegionSnapshot
}

func (m *mockPublisher) Publish(_ context.Context, snaps []domain.RegionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failTimes {
		return errors.New("broker unavailable")
	}
	m.published = append(m.published, snaps)
	return nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testConfig(regions ...int) *config.Config {
	return &config.Config{
		WatchRegions:    regions,
		LatestMonths:    2,
		PollConcurrency: 2,
		PollSchedule:    "@every 1h",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPoller_RunOnce_PublishesInWatchOrder(t *testing.T) {
	q := &mockQuerier{}
	pub := &mockPublisher{}
	metrics := newTestMetrics()
	p := pipeline.New(q, pub, testConfig(3031, 3004, 3016), discardLogger(), metrics)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.RunOnce(context.Background()))
	require.NoError(t, p.CheckReadiness(context.Background()))

	require.Len(t, pub.published, 1)
	batch := pub.published[0]
	require.Len(t, batch, 3)
	assert.Equal(t, []int{3031, 3004, 3016}, []int{batch[0].RegionID, batch[1].RegionID, batch[2].RegionID})
	assert.Equal(t, "Tromsø", batch[0].RegionName)
	assert.NotEmpty(t, batch[0].CycleID)
	assert.Equal(t, batch[0].CycleID, batch[2].CycleID)

	snaps := p.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, 3004, snaps[0].RegionID, "board is ordered by region id")
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.SnapshotsPublished), 0)
}

func TestPoller_RunOnce_NoPublisher(t *testing.T) {
	p := pipeline.New(&mockQuerier{}, nil, testConfig(3031), discardLogger(), newTestMetrics())
	require.NoError(t, p.RunOnce(context.Background()))
	assert.Len(t, p.Snapshots(), 1)
}

func TestPoller_RunOnce_RetriesPublish(t *testing.T) {
	pub := &mockPublisher{failTimes: 2}
	metrics := newTestMetrics()
	p := pipeline.New(&mockQuerier{}, pub, testConfig(3031), discardLogger(), metrics)

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, 3, pub.calls)
	assert.Len(t, pub.published, 1)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPoller_RunOnce_GivesUpAfterThreeAttempts(t *testing.T) {
	pub := &mockPublisher{failTimes: 10}
	p := pipeline.New(&mockQuerier{}, pub, testConfig(3031), discardLogger(), newTestMetrics())

	err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, pub.calls)
	assert.Len(t, p.Snapshots(), 1, "snapshots stay committed even when publishing fails")
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

// A second cycle that starts while the first is still waiting on a region
// supersedes it: the first request is cancelled and its result discarded.
func TestPoller_OverlappingCyclesDiscardStale(t *testing.T) {
	q := &mockQuerier{started: make(chan int, 4), block: map[int]bool{3031: true}}
	pub := &mockPublisher{}
	metrics := newTestMetrics()
	p := pipeline.New(q, pub, testConfig(3031), discardLogger(), metrics)

	firstDone := make(chan error, 1)
	go func() { firstDone <- p.RunOnce(context.Background()) }()
	<-q.started

	require.NoError(t, p.RunOnce(context.Background()))
	<-q.started

	select {
	case err := <-firstDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded cycle did not finish")
	}

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StaleDiscarded), 0)
	snaps := p.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, domain.StatusOK, snaps[0].Activity.Status)
	assert.Len(t, pub.published, 1, "only the current cycle publishes")
}

func TestPoller_Run_StopsOnCancel(t *testing.T) {
	q := &mockQuerier{started: make(chan int, 1)}
	metrics := newTestMetrics()
	p := pipeline.New(q, nil, testConfig(3031), discardLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	<-q.started
	require.Eventually(t, func() bool { return p.CheckReadiness(ctx) == nil }, time.Second, 10*time.Millisecond)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PollerRunning), 0)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PollerRunning), 0)
}

func TestPoller_Run_InvalidSchedule(t *testing.T) {
	cfg := testConfig(3031)
	cfg.PollSchedule = "every now and then"
	p := pipeline.New(&mockQuerier{}, nil, cfg, discardLogger(), newTestMetrics())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll schedule")
}

func TestBoard_GenerationGuard(t *testing.T) {
	b := pipeline.NewBoard()

	ctx1, gen1 := b.Begin(context.Background(), 3031)
	ctx2, gen2 := b.Begin(context.Background(), 3031)
	assert.Greater(t, gen2, gen1)
	require.ErrorIs(t, ctx1.Err(), context.Canceled, "starting a new generation cancels the old one")
	require.NoError(t, ctx2.Err())

	assert.False(t, b.Commit(3031, gen1, domain.RegionSnapshot{RegionID: 3031, CycleID: "old"}))
	assert.True(t, b.Commit(3031, gen2, domain.RegionSnapshot{RegionID: 3031, CycleID: "new"}))
	require.ErrorIs(t, ctx2.Err(), context.Canceled, "commit releases the request context")

	snaps := b.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "new", snaps[0].CycleID)
}

func TestBoard_ViewsAreIndependent(t *testing.T) {
	b := pipeline.NewBoard()

	ctxA, genA := b.Begin(context.Background(), 3031)
	_, genB := b.Begin(context.Background(), 3004)
	require.NoError(t, ctxA.Err())

	assert.True(t, b.Commit(3004, genB, domain.RegionSnapshot{RegionID: 3004}))
	assert.True(t, b.Abandon(3031, genA))
	assert.False(t, b.Abandon(3031, genA+1))
	assert.Len(t, b.Snapshots(), 1)
}
