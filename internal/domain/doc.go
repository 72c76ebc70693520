// Package domain models Norwegian natural-hazard forecast data published by
// NVE (Varsom) and observations reported through Regobs.
//
// # Data Source
//
// Avalanche, flood and landslide forecasts come from the NVE forecast APIs at
// https://api01.nve.no/hydrology/forecast/. The same logical resource is
// served as JSON or XML depending on endpoint and API version, and content
// type headers are not reliable. Adapters therefore hand this package plain
// field maps ([Fields]) regardless of wire format, and everything downstream
// is format independent.
//
// # NVE Data Conventions
//
// Field naming:
//
//	Keys vary in casing and spelling between endpoints and versions: a region
//	id may arrive as "id", "Id", "regionId", "RegionId" or "RegionID". Every
//	logical field is resolved through an ordered list of [Accessor] funcs; the
//	first present, type-correct value wins.
//
// Dates:
//
//	Records carry ValidFrom (local), ValidFromUtc and PublishTime (exposed as
//	"Published"). The record date is the first 10 characters (YYYY-MM-DD) of
//	the first non-empty one, in that order. Records without any date are
//	dropped silently; days without a forecast are normal, not failures.
//
// Danger level (faregrad, FG):
//
//	0 = not assessed, 1 Liten, 2 Moderat, 3 Betydelig, 4 Stor, 5 Meget stor.
//	DangerLevel is the current day; DangerLevelTmw (tomorrow) is only used when
//	DangerLevel is absent. Level 0 never counts toward histograms.
//
// Winters:
//
//	A winter spans Nov 1 of year Y to Apr 30 of Y+1 and is labelled "Y/YY",
//	e.g. "2023/24". The current winter starts in the previous calendar year
//	until May, so February 2024 belongs to winter 2023.
//
// County warnings:
//
//	Flood and landslide warnings are issued per county with an activity level
//	1 yellow, 2 orange, 3 red. The endpoints return a single object or a list.
//
// # Outcomes
//
// Every query resolves to [StatusOK], [StatusNoData] or [StatusError] so that
// "no forecast published" is never confused with "upstream unreachable".
package domain
