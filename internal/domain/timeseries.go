package domain

import "time"

// SeriesPoint is one calendar day of a chart series. DangerLevel is nil when
// no record was published for the day.
type SeriesPoint struct {
	Date        string       `json:"date"`
	DangerLevel *DangerLevel `json:"danger_level"`
}

// BuildSeries returns one point per calendar day in [from, to], inclusive.
// Only the calendar dates of from and to are used.
func BuildSeries(records []WarningRecord, from, to time.Time) ([]SeriesPoint, error) {
	start, end := StartOfDay(from), StartOfDay(to)
	if start.After(end) {
		return nil, &InvalidRangeError{From: start.Format(DateLayout), To: end.Format(DateLayout)}
	}

	byDay := make(map[string]DangerLevel, len(records))
	for _, r := range records {
		byDay[r.Date] = r.DangerLevel
	}

	days := int(end.Sub(start).Hours()/24) + 1
	out := make([]SeriesPoint, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		p := SeriesPoint{Date: key}
		if lvl, ok := byDay[key]; ok {
			p.DangerLevel = &lvl
		}
		out = append(out, p)
	}
	return out, nil
}

// DayRange parses a from/to pair in YYYY-MM-DD form.
func DayRange(from, to string) (time.Time, time.Time, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}
