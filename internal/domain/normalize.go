package domain

import (
	"sort"
	"strings"
)

// Field resolution policies, in priority order.
var (
	regionIDPolicy   = Keys("id", "Id", "regionId", "RegionId", "RegionID")
	regionNamePolicy = Keys("name", "Name", "regionName", "RegionName", "region", "Region")
	datePolicy       = Keys("ValidFrom", "ValidFromUtc", "Published", "PublishTime")
	dangerPolicy     = Keys("DangerLevel", "DangerLevelTmw")
	mainTextPolicy   = Keys("MainText")
	validFromPolicy  = Keys("ValidFrom")
	validToPolicy    = Keys("ValidTo")
	nextWarnPolicy   = Keys("NextWarningTime")
)

// Normalize maps one raw record to a WarningRecord. It reports false when no
// date can be resolved; such records carry no usable information.
func Normalize(item Fields) (WarningRecord, bool) {
	date := recordDate(item)
	if date == "" {
		return WarningRecord{}, false
	}

	rec := WarningRecord{Date: date}
	rec.RegionID, _ = ResolveInt(item, regionIDPolicy)
	rec.RegionName, _ = ResolveString(item, regionNamePolicy)
	rec.DangerLevel = resolveDanger(item)
	rec.MainText, _ = ResolveString(item, mainTextPolicy)
	rec.ValidFrom, _ = ResolveString(item, validFromPolicy)
	rec.ValidTo, _ = ResolveString(item, validToPolicy)
	rec.NextWarningTime, _ = ResolveString(item, nextWarnPolicy)
	return rec, true
}

// NormalizeWarnings normalizes a fetched batch for one region. Records that do
// not name their region are attributed to regionID. Duplicate (region, date)
// pairs collapse to one record: an assessed level beats an unassessed one,
// otherwise the later record in source order wins. Output is sorted by date.
func NormalizeWarnings(regionID int, items []Fields) []WarningRecord {
	type dayKey struct {
		region int
		date   string
	}
	byDay := make(map[dayKey]WarningRecord, len(items))

	for _, item := range items {
		rec, ok := Normalize(item)
		if !ok {
			continue
		}
		if rec.RegionID == 0 {
			rec.RegionID = regionID
		}
		k := dayKey{rec.RegionID, rec.Date}
		if prev, seen := byDay[k]; seen && prev.DangerLevel.Assessed() && !rec.DangerLevel.Assessed() {
			continue
		}
		byDay[k] = rec
	}

	out := make([]WarningRecord, 0, len(byDay))
	for _, rec := range byDay {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].RegionID < out[j].RegionID
	})
	return out
}

func recordDate(item Fields) string {
	s, ok := ResolveString(item, datePolicy)
	if !ok {
		return ""
	}
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// resolveDanger falls back to tomorrow's level only when today's is absent.
// An empty element, as XML sends for an unassessed day, reads as 0. Values
// outside 0-5 normalize to 0.
func resolveDanger(item Fields) DangerLevel {
	if v, ok := item["DangerLevel"].(string); ok && strings.TrimSpace(v) == "" {
		return DangerNotAssessed
	}
	n, ok := ResolveInt(item, dangerPolicy)
	if !ok || n < 0 || n > int(DangerVeryHigh) {
		return DangerNotAssessed
	}
	return DangerLevel(n)
}
