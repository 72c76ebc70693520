package domain

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Region is a named avalanche forecast zone.
type Region struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// knownRegionNames covers the regions the dashboard links to by default.
var knownRegionNames = map[int]string{
	3004: "Lyngen",
	3027: "Indre Sogn",
	3016: "Salten",
	3031: "Tromsø",
	3030: "Hallingdal",
}

// KnownRegionName returns a built-in name for id, if there is one.
func KnownRegionName(id int) (string, bool) {
	name, ok := knownRegionNames[id]
	return name, ok
}

// KnownRegions returns the built-in regions, sorted like NormalizeRegions.
func KnownRegions() []Region {
	items := make([]Fields, 0, len(knownRegionNames))
	for id, name := range knownRegionNames {
		items = append(items, Fields{"id": id, "name": name})
	}
	return NormalizeRegions(items)
}

// NormalizeRegions keeps entries with an integer id and a non-blank name,
// de-duplicates by id (later entries win) and sorts by Norwegian collation.
func NormalizeRegions(items []Fields) []Region {
	byID := make(map[int]string, len(items))
	for _, item := range items {
		id, ok := ResolveInt(item, regionIDPolicy)
		if !ok {
			continue
		}
		name, ok := ResolveString(item, regionNamePolicy)
		if !ok {
			continue
		}
		byID[id] = name
	}

	out := make([]Region, 0, len(byID))
	for id, name := range byID {
		out = append(out, Region{ID: id, Name: name})
	}

	col := collate.New(language.Norwegian)
	sort.Slice(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
