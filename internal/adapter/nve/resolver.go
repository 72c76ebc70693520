package nve

import (
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

// Known-good avalanche API versions, newest first.
var avalancheVersions = []string{"v6.3.0", "v6.2.1"}

// Region type ids tried in order until one returns a non-empty list.
var regionTypeIDs = []int{2, 1, 0, 3}

// LangStyle selects how the language is written into avalanche paths.
type LangStyle int

const (
	LangNumeric LangStyle = iota // 1 / 2
	LangCode                     // no / en
)

// Resolver builds candidate URLs in a fixed priority order. It performs no I/O.
type Resolver struct {
	BaseURL          string
	LangStyle        LangStyle
	FloodVersion     string
	LandslideVersion string
}

func (r Resolver) avalancheBase(version string) string {
	return fmt.Sprintf("%s/hydrology/forecast/avalanche/%s/api", r.BaseURL, version)
}

func (r Resolver) lang(l domain.Language) string {
	if r.LangStyle == LangCode {
		return l.Code()
	}
	return l.Key()
}

// WarningCandidates returns summary warning URLs: for each version the
// primary warning/region path, then the AvalancheWarningByRegion/Simple
// fallback.
func (r Resolver) WarningCandidates(regionID int, lang domain.Language, from, to time.Time) []string {
	f, t, l := from.Format(domain.DateLayout), to.Format(domain.DateLayout), r.lang(lang)
	out := make([]string, 0, 2*len(avalancheVersions))
	for _, v := range avalancheVersions {
		base := r.avalancheBase(v)
		out = append(out,
			fmt.Sprintf("%s/warning/region/%d/%s/%s/%s", base, regionID, l, f, t),
			fmt.Sprintf("%s/AvalancheWarningByRegion/Simple/%d/%s/%s/%s", base, regionID, l, f, t),
		)
	}
	return out
}

// DetailCandidates returns detailed warning URLs, one per version.
func (r Resolver) DetailCandidates(regionID int, lang domain.Language, from, to time.Time) []string {
	f, t, l := from.Format(domain.DateLayout), to.Format(domain.DateLayout), r.lang(lang)
	out := make([]string, 0, len(avalancheVersions))
	for _, v := range avalancheVersions {
		out = append(out, fmt.Sprintf("%s/AvalancheWarningByRegion/Detail/%d/%s/%s/%s", r.avalancheBase(v), regionID, l, f, t))
	}
	return out
}

// RegionCandidates returns region-list URLs for every version and region type.
func (r Resolver) RegionCandidates() []string {
	out := make([]string, 0, len(avalancheVersions)*len(regionTypeIDs))
	for _, v := range avalancheVersions {
		for _, typeID := range regionTypeIDs {
			out = append(out, fmt.Sprintf("%s/Region/%d", r.avalancheBase(v), typeID))
		}
	}
	return out
}

// FloodURL returns the county flood warning URL.
func (r Resolver) FloodURL(countyID int) string {
	return fmt.Sprintf("%s/hydrology/forecast/flood/%s/api/Warning/County/%d", r.BaseURL, r.FloodVersion, countyID)
}

// LandslideURL returns the county landslide warning URL. This endpoint only
// accepts the numeric language key.
func (r Resolver) LandslideURL(countyID int, lang domain.Language, from, to time.Time) string {
	return fmt.Sprintf("%s/hydrology/forecast/landslide/%s/api/Warning/County/%d/%s/%s/%s",
		r.BaseURL, r.LandslideVersion, countyID, lang.Key(), from.Format(domain.DateLayout), to.Format(domain.DateLayout))
}
