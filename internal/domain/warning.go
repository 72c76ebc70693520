package domain

import "fmt"

// DateLayout is the calendar-date format used in upstream paths and records.
const DateLayout = "2006-01-02"

// DangerLevel is the avalanche danger scale (faregrad). 0 means not assessed.
type DangerLevel int

const (
	DangerNotAssessed  DangerLevel = 0
	DangerLow          DangerLevel = 1
	DangerModerate     DangerLevel = 2
	DangerConsiderable DangerLevel = 3
	DangerHigh         DangerLevel = 4
	DangerVeryHigh     DangerLevel = 5
)

// Assessed reports whether the level is on the 1-5 scale.
func (d DangerLevel) Assessed() bool {
	return d >= DangerLow && d <= DangerVeryHigh
}

// Label returns the Norwegian name shown on Varsom.
func (d DangerLevel) Label() string {
	switch d {
	case DangerNotAssessed:
		return "Ikke vurdert"
	case DangerLow:
		return "Liten"
	case DangerModerate:
		return "Moderat"
	case DangerConsiderable:
		return "Betydelig"
	case DangerHigh:
		return "Stor"
	case DangerVeryHigh:
		return "Meget stor"
	default:
		return "Ukjent"
	}
}

func (d DangerLevel) String() string {
	if !d.Assessed() {
		return d.Label()
	}
	return fmt.Sprintf("%d %s", int(d), d.Label())
}

// WarningRecord is the canonical, format-independent avalanche warning.
type WarningRecord struct {
	RegionID        int         `json:"region_id"`
	RegionName      string      `json:"region_name,omitempty"`
	Date            string      `json:"date"` // YYYY-MM-DD
	DangerLevel     DangerLevel `json:"danger_level"`
	MainText        string      `json:"main_text,omitempty"`
	ValidFrom       string      `json:"valid_from,omitempty"`
	ValidTo         string      `json:"valid_to,omitempty"`
	NextWarningTime string      `json:"next_warning_time,omitempty"`
}
