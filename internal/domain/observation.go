package domain

import (
	"sort"
	"time"
)

// Observation is one Regobs field registration.
type Observation struct {
	RegID         int       `json:"reg_id"`
	ObservedAt    time.Time `json:"observed_at"`
	LocationName  string    `json:"location_name,omitempty"`
	AvalancheSize int       `json:"avalanche_size,omitempty"`
}

var (
	obsTimePolicy     = Keys("DtObsTime")
	obsLocationPolicy = Keys("LocationName")
	obsIDPolicy       = Keys("RegId", "RegID")
	obsSizePolicy     = []Accessor{Key("AvalancheSizeTID"), Path("AvalancheExt", "SizeTID")}
)

// NormalizeObservations maps Regobs registrations, dropping entries without a
// parseable observation time, and sorts them newest first.
func NormalizeObservations(items []Fields) []Observation {
	out := make([]Observation, 0, len(items))
	for _, item := range items {
		ts, ok := ResolveString(item, obsTimePolicy)
		if !ok {
			continue
		}
		at, err := parseObsTime(ts)
		if err != nil {
			continue
		}
		o := Observation{ObservedAt: at}
		o.RegID, _ = ResolveInt(item, obsIDPolicy)
		o.LocationName, _ = ResolveString(item, obsLocationPolicy)
		o.AvalancheSize, _ = ResolveInt(item, obsSizePolicy)
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ObservedAt.After(out[j].ObservedAt)
	})
	return out
}

// Regobs timestamps come with or without a zone offset.
func parseObsTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
