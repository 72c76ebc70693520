package nve

import (
	"testing"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://api01.nve.no"

var (
	testFrom = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
)

func TestResolver_WarningCandidates(t *testing.T) {
	r := Resolver{BaseURL: testBase}

	got := r.WarningCandidates(3031, domain.Norwegian, testFrom, testTo)
	assert.Equal(t, []string{
		testBase + "/hydrology/forecast/avalanche/v6.3.0/api/warning/region/3031/1/2024-01-01/2024-01-31",
		testBase + "/hydrology/forecast/avalanche/v6.3.0/api/AvalancheWarningByRegion/Simple/3031/1/2024-01-01/2024-01-31",
		testBase + "/hydrology/forecast/avalanche/v6.2.1/api/warning/region/3031/1/2024-01-01/2024-01-31",
		testBase + "/hydrology/forecast/avalanche/v6.2.1/api/AvalancheWarningByRegion/Simple/3031/1/2024-01-01/2024-01-31",
	}, got)
}

func TestResolver_LangStyle(t *testing.T) {
	numeric := Resolver{BaseURL: testBase, LangStyle: LangNumeric}
	code := Resolver{BaseURL: testBase, LangStyle: LangCode}

	assert.Contains(t, numeric.WarningCandidates(3031, domain.English, testFrom, testTo)[0], "/3031/2/")
	assert.Contains(t, code.WarningCandidates(3031, domain.English, testFrom, testTo)[0], "/3031/en/")
	assert.Contains(t, code.DetailCandidates(3031, domain.Norwegian, testFrom, testTo)[0], "/Detail/3031/no/")
}

func TestResolver_Deterministic(t *testing.T) {
	r := Resolver{BaseURL: testBase}
	assert.Equal(t,
		r.WarningCandidates(3004, domain.Norwegian, testFrom, testTo),
		r.WarningCandidates(3004, domain.Norwegian, testFrom, testTo))
}

func TestResolver_RegionCandidates(t *testing.T) {
	got := Resolver{BaseURL: testBase}.RegionCandidates()
	require.Len(t, got, 8)
	assert.Equal(t, testBase+"/hydrology/forecast/avalanche/v6.3.0/api/Region/2", got[0])
	assert.Equal(t, testBase+"/hydrology/forecast/avalanche/v6.3.0/api/Region/3", got[3])
	assert.Equal(t, testBase+"/hydrology/forecast/avalanche/v6.2.1/api/Region/2", got[4])
}

func TestResolver_CountyURLs(t *testing.T) {
	r := Resolver{BaseURL: testBase, LangStyle: LangCode, FloodVersion: "v1.0.6", LandslideVersion: "v1.0.10"}

	assert.Equal(t, testBase+"/hydrology/forecast/flood/v1.0.6/api/Warning/County/46", r.FloodURL(46))
	assert.Equal(t,
		testBase+"/hydrology/forecast/landslide/v1.0.10/api/Warning/County/46/1/2024-01-01/2024-01-31",
		r.LandslideURL(46, domain.Norwegian, testFrom, testTo))
}
