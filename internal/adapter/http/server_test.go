package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/hazard-data-service/internal/adapter/http"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/hazard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// mockQuerier records the arguments of the last call and returns err when set.
type mockQuerier struct {
	err error

	regionID  int
	from, to  time.Time
	count     int
	months    int
	days      int
	refresh   bool
	regionIDs []int
	tag       string
	cleared   bool

	detail   domain.ForecastDetail
	activity *domain.Activity
}

func (m *mockQuerier) Regions(_ context.Context) ([]domain.Region, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Region{{ID: 3031, Name: "Tromsø"}}, nil
}

func (m *mockQuerier) TimeSeries(_ context.Context, regionID int, from, to time.Time) ([]domain.SeriesPoint, error) {
	m.regionID, m.from, m.to = regionID, from, to
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SeriesPoint{}, nil
}

func (m *mockQuerier) Winters(_ context.Context, regionID, count int) ([]domain.WinterBucket, error) {
	m.regionID, m.count = regionID, count
	return []domain.WinterBucket{{Label: "2023/24"}}, m.err
}

func (m *mockQuerier) Latest(_ context.Context, regionID, months int, refresh bool) (domain.Activity, error) {
	m.regionID, m.months, m.refresh = regionID, months, refresh
	return domain.Activity{RegionID: regionID, Status: domain.StatusOK, LastDate: "2024-02-15"}, m.err
}

func (m *mockQuerier) LatestMany(_ context.Context, regionIDs []int, months int, refresh bool) ([]domain.Activity, error) {
	m.regionIDs, m.months, m.refresh = regionIDs, months, refresh
	out := make([]domain.Activity, len(regionIDs))
	for i, id := range regionIDs {
		out[i] = domain.Activity{RegionID: id, Status: domain.StatusNoData}
	}
	return out, m.err
}

func (m *mockQuerier) Detail(_ context.Context, regionID int) (domain.ForecastDetail, error) {
	m.regionID = regionID
	return m.detail, m.err
}

func (m *mockQuerier) Events(_ context.Context, regionID, days int, refresh bool) (domain.Activity, error) {
	m.regionID, m.days, m.refresh = regionID, days, refresh
	return domain.Activity{RegionID: regionID, Status: domain.StatusOK, Count: 2}, m.err
}

func (m *mockQuerier) Observations(_ context.Context, regionID, days int) ([]domain.Observation, error) {
	m.regionID, m.days = regionID, days
	return []domain.Observation{{RegID: 1}}, m.err
}

func (m *mockQuerier) Flood(_ context.Context, countyID int) ([]domain.CountyWarning, error) {
	m.regionID = countyID
	return []domain.CountyWarning{}, m.err
}

func (m *mockQuerier) Landslide(_ context.Context, countyID int, from, to time.Time) ([]domain.CountyWarning, error) {
	m.regionID, m.from, m.to = countyID, from, to
	return []domain.CountyWarning{}, m.err
}

func (m *mockQuerier) Activity(_ context.Context, regionID int, tag string) (domain.Activity, bool, error) {
	m.regionID, m.tag = regionID, tag
	if m.activity == nil {
		return domain.Activity{}, false, m.err
	}
	return *m.activity, true, m.err
}

func (m *mockQuerier) ForgetActivity(_ context.Context, regionID int, tag string) error {
	m.regionID, m.tag = regionID, tag
	return m.err
}

func (m *mockQuerier) ClearActivity(_ context.Context) error {
	m.cleared = true
	return m.err
}

type mockBoard struct{ snaps []domain.RegionSnapshot }

func (m *mockBoard) Snapshots() []domain.RegionSnapshot { return m.snaps }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockQuerier{}, nil, &mockReadiness{err: readyErr}, slog.Default())
}

func newAPIServer(q *mockQuerier) *httpadapter.Server {
	return httpadapter.NewServer(":0", q, nil, &mockReadiness{}, slog.Default())
}

func serve(srv http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("not ready yet")), http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegions(t *testing.T) {
	rec := serve(newAPIServer(&mockQuerier{}), http.MethodGet, "/api/regions")

	require.Equal(t, http.StatusOK, rec.Code)
	var regions []domain.Region
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regions))
	assert.Equal(t, []domain.Region{{ID: 3031, Name: "Tromsø"}}, regions)
}

func TestSeries_ParsesRange(t *testing.T) {
	q := &mockQuerier{}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/regions/3031/series?from=2024-01-01&to=2024-01-31")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3031, q.regionID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.from)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), q.to)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-01-01", body["from"])
	assert.Equal(t, "2024-01-31", body["to"])
}

func TestSeries_InvalidRangeIs400(t *testing.T) {
	q := &mockQuerier{err: &domain.InvalidRangeError{From: "2024-02-01", To: "2024-01-01"}}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/regions/3031/series?from=2024-02-01&to=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBadParameters(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"non-numeric id", "/api/regions/tromso/latest"},
		{"zero id", "/api/regions/0/latest"},
		{"bad date", "/api/regions/3031/series?from=01.01.2024"},
		{"winters out of range", "/api/regions/3031/winters?count=50"},
		{"bad refresh", "/api/regions/3031/latest?refresh=maybe"},
		{"missing regions", "/api/latest"},
		{"bad region list", "/api/latest?regions=3031,x"},
		{"activity without tag", "/api/activity/3031"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newAPIServer(&mockQuerier{}), http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWinters_Defaults(t *testing.T) {
	q := &mockQuerier{}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/regions/3004/winters")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3004, q.regionID)
	assert.Equal(t, 5, q.count)
}

func TestLatest_PassesParameters(t *testing.T) {
	q := &mockQuerier{}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/regions/3031/latest?months=6&refresh=true")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, q.months)
	assert.True(t, q.refresh)

	var a domain.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "2024-02-15", a.LastDate)
}

func TestLatestMany(t *testing.T) {
	q := &mockQuerier{}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/latest?regions=3031,%203004")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{3031, 3004}, q.regionIDs)
	assert.Equal(t, 24, q.months)
	assert.False(t, q.refresh)

	var out []domain.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, 3004, out[1].RegionID)
}

func TestDetail(t *testing.T) {
	minElev := 500
	q := &mockQuerier{detail: domain.ForecastDetail{
		WarningRecord: domain.WarningRecord{RegionID: 3031, Date: "2024-02-15", DangerLevel: domain.DangerConsiderable},
		Problems:      []domain.AvalancheProblem{{Name: "Vindflak", ElevationMin: &minElev}},
	}}
	rec := serve(newAPIServer(q), http.MethodGet, "/api/regions/3031/detail")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Forecast  domain.ForecastDetail `json:"forecast"`
		Summaries []string              `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-02-15", body.Forecast.Date)
	assert.Equal(t, []string{"Vindflak • over 500 m"}, body.Summaries)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target string
		want   int
	}{
		{"no forecast", hazard.ErrNoForecast, "/api/regions/3031/detail", http.StatusNotFound},
		{"observations disabled", hazard.ErrObservationsDisabled, "/api/regions/3031/events", http.StatusNotImplemented},
		{"wrapped disabled", fmt.Errorf("events: %w", hazard.ErrObservationsDisabled), "/api/regions/3031/observations", http.StatusNotImplemented},
		{"upstream", &domain.ResolutionError{Resource: "warnings"}, "/api/regions/3031/winters", http.StatusBadGateway},
		{"flood upstream", errors.New("connection refused"), "/api/counties/46/flood", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newAPIServer(&mockQuerier{err: tt.err}), http.MethodGet, tt.target)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestEventsAndObservations(t *testing.T) {
	q := &mockQuerier{}
	srv := newAPIServer(q)

	rec := serve(srv, http.MethodGet, "/api/regions/3016/events?days=7&refresh=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, q.days)
	assert.True(t, q.refresh)

	rec = serve(srv, http.MethodGet, "/api/regions/3016/observations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, q.days)
}

func TestLandslide_OptionalRange(t *testing.T) {
	q := &mockQuerier{}
	srv := newAPIServer(q)

	rec := serve(srv, http.MethodGet, "/api/counties/46/landslide")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, q.from.IsZero())
	assert.True(t, q.to.IsZero())

	rec = serve(srv, http.MethodGet, "/api/counties/46/landslide?from=2024-02-15&to=2024-02-17")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 46, q.regionID)
	assert.Equal(t, time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC), q.to)
}

func TestActivityEndpoints(t *testing.T) {
	q := &mockQuerier{}
	srv := newAPIServer(q)

	rec := serve(srv, http.MethodGet, "/api/activity/3031?tag=latest:24")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "latest:24", q.tag)

	q.activity = &domain.Activity{RegionID: 3031, Tag: "latest:24", Status: domain.StatusOK}
	rec = serve(srv, http.MethodGet, "/api/activity/3031?tag=latest:24")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, http.MethodDelete, "/api/activity/3031?tag=events:30")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "events:30", q.tag)

	rec = serve(srv, http.MethodDelete, "/api/activity")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, q.cleared)
}

func TestSnapshots(t *testing.T) {
	rec := serve(newAPIServer(&mockQuerier{}), http.MethodGet, "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	board := &mockBoard{snaps: []domain.RegionSnapshot{{RegionID: 3031, CycleID: "c1"}}}
	srv := httpadapter.NewServer(":0", &mockQuerier{}, board, &mockReadiness{}, slog.Default())
	rec = serve(srv, http.MethodGet, "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)

	var snaps []domain.RegionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, "c1", snaps[0].CycleID)
}
