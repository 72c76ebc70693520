package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/hazard"
)

const (
	defaultWinters     = 5
	defaultMonths      = 24
	defaultEventDays   = 30
	defaultSeriesDays  = 30
	maxWinters         = 20
	maxRegionsPerQuery = 50
)

// Querier is the query surface served under /api. hazard.Service implements it.
type Querier interface {
	Regions(ctx context.Context) ([]domain.Region, error)
	TimeSeries(ctx context.Context, regionID int, from, to time.Time) ([]domain.SeriesPoint, error)
	Winters(ctx context.Context, regionID, count int) ([]domain.WinterBucket, error)
	Latest(ctx context.Context, regionID, months int, refresh bool) (domain.Activity, error)
	LatestMany(ctx context.Context, regionIDs []int, months int, refresh bool) ([]domain.Activity, error)
	Detail(ctx context.Context, regionID int) (domain.ForecastDetail, error)
	Events(ctx context.Context, regionID, days int, refresh bool) (domain.Activity, error)
	Observations(ctx context.Context, regionID, days int) ([]domain.Observation, error)
	Flood(ctx context.Context, countyID int) ([]domain.CountyWarning, error)
	Landslide(ctx context.Context, countyID int, from, to time.Time) ([]domain.CountyWarning, error)
	Activity(ctx context.Context, regionID int, tag string) (domain.Activity, bool, error)
	ForgetActivity(ctx context.Context, regionID int, tag string) error
	ClearActivity(ctx context.Context) error
}

// SnapshotSource exposes the poller's committed snapshots.
type SnapshotSource interface {
	Snapshots() []domain.RegionSnapshot
}

// badRequest marks a parameter error.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{id}/series", s.handleSeries)
	mux.HandleFunc("GET /api/regions/{id}/winters", s.handleWinters)
	mux.HandleFunc("GET /api/regions/{id}/latest", s.handleLatest)
	mux.HandleFunc("GET /api/regions/{id}/detail", s.handleDetail)
	mux.HandleFunc("GET /api/regions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /api/regions/{id}/observations", s.handleObservations)
	mux.HandleFunc("GET /api/latest", s.handleLatestMany)
	mux.HandleFunc("GET /api/counties/{id}/flood", s.handleFlood)
	mux.HandleFunc("GET /api/counties/{id}/landslide", s.handleLandslide)
	mux.HandleFunc("GET /api/activity/{id}", s.handleGetActivity)
	mux.HandleFunc("DELETE /api/activity/{id}", s.handleForgetActivity)
	mux.HandleFunc("DELETE /api/activity", s.handleClearActivity)
	mux.HandleFunc("GET /api/snapshots", s.handleSnapshots)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.api.Regions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", domain.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, err := queryDate(r, "from", to.AddDate(0, 0, -(defaultSeriesDays-1)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	points, err := s.api.TimeSeries(r.Context(), id, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region_id": id,
		"from":      from.Format(domain.DateLayout),
		"to":        to.Format(domain.DateLayout),
		"points":    points,
	})
}

func (s *Server) handleWinters(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	count, err := queryInt(r, "count", defaultWinters, 1, maxWinters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	buckets, err := s.api.Winters(r.Context(), id, count)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region_id": id, "winters": buckets})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "months", defaultMonths, 1, 120)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.api.Latest(r.Context(), id, months, refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleLatestMany(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "regions")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "months", defaultMonths, 1, 120)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	activities, err := s.api.LatestMany(r.Context(), ids, months, refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.api.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries := make([]string, len(d.Problems))
	for i, p := range d.Problems {
		summaries[i] = p.Summary()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forecast":  d,
		"summaries": summaries,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", defaultEventDays, 1, 365)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.api.Events(r.Context(), id, days, refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", defaultEventDays, 1, 365)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	obs, err := s.api.Observations(r.Context(), id, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleFlood(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	warnings, err := s.api.Flood(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warnings)
}

func (s *Server) handleLandslide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, err := queryDate(r, "from", time.Time{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", time.Time{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	warnings, err := s.api.Landslide(r.Context(), id, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warnings)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, tag, err := activityKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, ok, err := s.api.Activity(r.Context(), id, tag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached activity"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleForgetActivity(w http.ResponseWriter, r *http.Request) {
	id, tag, err := activityKey(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.api.ForgetActivity(r.Context(), id, tag); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.api.ClearActivity(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, _ *http.Request) {
	snaps := []domain.RegionSnapshot{}
	if s.board != nil {
		snaps = s.board.Snapshots()
	}
	writeJSON(w, http.StatusOK, snaps)
}

// writeError maps an error to a status code. Upstream failures carry the
// full attempt trace in the body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bad      *badRequest
		rangeErr *domain.InvalidRangeError
		status   int
	)
	switch {
	case errors.As(err, &bad), errors.As(err, &rangeErr):
		status = http.StatusBadRequest
	case errors.Is(err, hazard.ErrNoForecast):
		status = http.StatusNotFound
	case errors.Is(err, hazard.ErrObservationsDisabled):
		status = http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return
	default:
		status = http.StatusBadGateway
		s.logger.Warn("upstream query failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequestf("invalid id %q", raw)
	}
	return id, nil
}

func activityKey(r *http.Request) (int, string, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, "", err
	}
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if tag == "" {
		return 0, "", badRequestf("tag is required")
	}
	return id, tag, nil
}

func queryInt(r *http.Request, key string, fallback, minimum, maximum int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum || n > maximum {
		return 0, badRequestf("invalid %s %q: want %d..%d", key, raw, minimum, maximum)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequestf("invalid %s %q", key, raw)
	}
	return b, nil
}

func queryDate(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, badRequestf("invalid %s %q: want YYYY-MM-DD", key, raw)
	}
	return t, nil
}

func queryIDs(r *http.Request, key string) ([]int, error) {
	raw := r.URL.Query().Get(key)
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, badRequestf("invalid %s entry %q", key, part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, badRequestf("%s is required", key)
	}
	if len(ids) > maxRegionsPerQuery {
		return nil, badRequestf("at most %d %s per query", maxRegionsPerQuery, key)
	}
	return ids, nil
}
