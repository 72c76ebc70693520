package domain

import (
	"fmt"
	"strings"
)

// maxProblems is how many avalanche problems a forecast summary shows.
const maxProblems = 3

const defaultProblemName = "Skredproblem"

var (
	problemNamePolicy  = Keys("AvalancheProblemName", "AvalancheProblemTIDName", "ProblemName", "TypeName")
	elevationMinPolicy = []Accessor{Path("ValidExposition", "MinElevation"), Key("ValidHeightMin"), Key("ElevationMin")}
	elevationMaxPolicy = []Accessor{Path("ValidExposition", "MaxElevation"), Key("ValidHeightMax"), Key("ElevationMax")}
	aspectPolicy       = []Accessor{Path("ValidExposition", "Aspect"), Key("Exposition"), Key("Aspect"), Key("AspectName"), Key("AspectAbb")}
)

// AvalancheProblem is one contributing cause in a detailed forecast.
type AvalancheProblem struct {
	Name         string `json:"name"`
	ElevationMin *int   `json:"elevation_min,omitempty"`
	ElevationMax *int   `json:"elevation_max,omitempty"`
	Aspect       string `json:"aspect,omitempty"`
}

// Elevation renders the elevation band, or "" when neither bound is known.
func (p AvalancheProblem) Elevation() string {
	switch {
	case p.ElevationMin != nil && p.ElevationMax != nil:
		return fmt.Sprintf("%d–%d m", *p.ElevationMin, *p.ElevationMax)
	case p.ElevationMin != nil:
		return fmt.Sprintf("over %d m", *p.ElevationMin)
	case p.ElevationMax != nil:
		return fmt.Sprintf("under %d m", *p.ElevationMax)
	default:
		return ""
	}
}

// Summary joins name, elevation band and aspect with " • ".
func (p AvalancheProblem) Summary() string {
	parts := []string{p.Name}
	if e := p.Elevation(); e != "" {
		parts = append(parts, e)
	}
	if p.Aspect != "" {
		parts = append(parts, p.Aspect)
	}
	return strings.Join(parts, " • ")
}

// ForecastDetail is a detailed avalanche forecast for one region and day.
type ForecastDetail struct {
	WarningRecord
	DangerLabel string             `json:"danger_label"`
	Problems    []AvalancheProblem `json:"problems"`
}

// ParseDetail maps a Detail record. Records without a date still parse so
// that a forecast with only problem data can be shown.
func ParseDetail(regionID int, item Fields) ForecastDetail {
	rec, ok := Normalize(item)
	if !ok {
		rec = WarningRecord{DangerLevel: resolveDanger(item)}
		rec.MainText, _ = ResolveString(item, mainTextPolicy)
		rec.ValidTo, _ = ResolveString(item, validToPolicy)
		rec.NextWarningTime, _ = ResolveString(item, nextWarnPolicy)
	}
	if rec.RegionID == 0 {
		rec.RegionID = regionID
	}

	d := ForecastDetail{WarningRecord: rec, DangerLabel: rec.DangerLevel.Label()}
	for _, p := range item.List("AvalancheProblems") {
		if len(d.Problems) == maxProblems {
			break
		}
		d.Problems = append(d.Problems, parseProblem(p))
	}
	return d
}

// PickForDay returns the forecast whose ValidFrom starts with day, else the
// first one.
func PickForDay(details []ForecastDetail, day string) (ForecastDetail, bool) {
	if len(details) == 0 {
		return ForecastDetail{}, false
	}
	for _, d := range details {
		if strings.HasPrefix(d.ValidFrom, day) {
			return d, true
		}
	}
	return details[0], true
}

func parseProblem(item Fields) AvalancheProblem {
	p := AvalancheProblem{Name: defaultProblemName}
	if name, ok := ResolveString(item, problemNamePolicy); ok {
		p.Name = name
	}
	if v, ok := ResolveInt(item, elevationMinPolicy); ok {
		p.ElevationMin = &v
	}
	if v, ok := ResolveInt(item, elevationMaxPolicy); ok {
		p.ElevationMax = &v
	}
	if s, ok := ResolveString(item, aspectPolicy); ok {
		p.Aspect = strings.Join(strings.Fields(strings.ReplaceAll(s, "-", "–")), "")
	}
	return p
}
