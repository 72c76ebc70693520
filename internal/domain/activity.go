package domain

import (
	"sort"
	"time"
)

// Status is the outcome of a query.
type Status string

const (
	StatusOK     Status = "ok"     // usable records found
	StatusNoData Status = "nodata" // query succeeded with zero usable records
	StatusError  Status = "error"  // query failed
)

// Activity is the last known activity for one region and query shape.
type Activity struct {
	RegionID    int         `json:"region_id"`
	Tag         string      `json:"tag"`
	Status      Status      `json:"status"`
	LastDate    string      `json:"last_date,omitempty"`
	DangerLevel DangerLevel `json:"danger_level,omitempty"` // omitted unless assessed
	Count       int         `json:"count,omitempty"`
	Note        string      `json:"note,omitempty"`
	CheckedAt   time.Time   `json:"checked_at"`
}

// LatestActivity summarizes the newest dated record. The danger level is only
// reported when assessed.
func LatestActivity(regionID int, tag string, records []WarningRecord) Activity {
	a := Activity{RegionID: regionID, Tag: tag, Status: StatusNoData, CheckedAt: clock.Now()}
	if len(records) == 0 {
		return a
	}

	sorted := make([]WarningRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	newest := sorted[0]
	a.Status = StatusOK
	a.LastDate = newest.Date
	a.Count = len(records)
	if newest.DangerLevel.Assessed() {
		a.DangerLevel = newest.DangerLevel
	}
	return a
}

// EventActivity summarizes a batch of observations, assumed newest first.
func EventActivity(regionID int, tag string, obs []Observation) Activity {
	a := Activity{RegionID: regionID, Tag: tag, Status: StatusNoData, CheckedAt: clock.Now()}
	if len(obs) == 0 {
		return a
	}
	a.Status = StatusOK
	a.Count = len(obs)
	a.LastDate = obs[0].ObservedAt.Format(DateLayout)
	return a
}

// FailedActivity records a query failure.
func FailedActivity(regionID int, tag string, err error) Activity {
	return Activity{RegionID: regionID, Tag: tag, Status: StatusError, Note: err.Error(), CheckedAt: clock.Now()}
}

// RegionSnapshot is the poller's published view of one watched region.
type RegionSnapshot struct {
	RegionID   int      `json:"region_id"`
	RegionName string   `json:"region_name,omitempty"`
	Activity   Activity `json:"activity"`
	CycleID    string   `json:"cycle_id"`
}
