package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

// Board holds the committed snapshot for each view (one watched region) and
// the generation of the request currently allowed to replace it. Starting a
// new request for a view cancels the one in flight, and a result is only
// committed if its generation is still current.
type Board struct {
	mu    sync.Mutex
	views map[int]*view
}

type view struct {
	gen       uint64
	cancel    context.CancelFunc
	snapshot  domain.RegionSnapshot
	committed bool
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{views: make(map[int]*view)}
}

// Begin starts a new generation for regionID and returns a context that is
// cancelled when a later generation begins.
func (b *Board) Begin(parent context.Context, regionID int) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.views[regionID]
	if !ok {
		v = &view{}
		b.views[regionID] = v
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	v.cancel = cancel
	return ctx, v.gen
}

// Commit stores snap if gen is still the current generation for regionID.
// It reports false for a stale result, which is dropped.
func (b *Board) Commit(regionID int, gen uint64, snap domain.RegionSnapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.views[regionID]
	if !ok || v.gen != gen {
		return false
	}
	v.snapshot = snap
	v.committed = true
	v.release()
	return true
}

// Abandon ends gen without a result. It reports false if gen was already stale.
func (b *Board) Abandon(regionID int, gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.views[regionID]
	if !ok || v.gen != gen {
		return false
	}
	v.release()
	return true
}

func (v *view) release() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Snapshots returns the committed snapshots ordered by region id.
func (b *Board) Snapshots() []domain.RegionSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.RegionSnapshot, 0, len(b.views))
	for _, v := range b.views {
		if v.committed {
			out = append(out, v.snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionID < out[j].RegionID })
	return out
}
