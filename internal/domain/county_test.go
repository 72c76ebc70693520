package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCountyWarnings(t *testing.T) {
	got := NormalizeCountyWarnings([]Fields{
		{
			"Id":            101.0,
			"WarningTitle":  "Jordskredfare",
			"WarningText":   "Mye regn i Viken",
			"ActivityLevel": 2.0,
			"ValidFrom":     "2024-10-01T07:00:00",
			"ValidTo":       "2024-10-02T07:00:00",
		},
		{"Id": 102.0, "MainText": "Flom i lavereliggende strøk", "ActivityLevel": "3"},
		{"Id": 103.0, "WarningText": "Ukjent nivå", "ActivityLevel": 9.0},
		{"ActivityLevel": 1.0},
	})

	require.Len(t, got, 3)
	assert.Equal(t, CountyWarning{
		ID:            101,
		Title:         "Jordskredfare",
		Text:          "Mye regn i Viken",
		ActivityLevel: ActivityOrange,
		ActivityLabel: "orange",
		ValidFrom:     "2024-10-01T07:00:00",
		ValidTo:       "2024-10-02T07:00:00",
	}, got[0])
	assert.Equal(t, ActivityRed, got[1].ActivityLevel)
	assert.Equal(t, "Flom i lavereliggende strøk", got[1].Text)
	assert.Equal(t, ActivityNone, got[2].ActivityLevel)
	assert.Equal(t, "none", got[2].ActivityLabel)
}

func TestActivityLevelString(t *testing.T) {
	assert.Equal(t, "yellow", ActivityYellow.String())
	assert.Equal(t, "red", ActivityRed.String())
	assert.Equal(t, "none", ActivityLevel(4).String())
}
