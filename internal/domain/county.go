package domain

// ActivityLevel is the county warning level for floods and landslides.
type ActivityLevel int

const (
	ActivityNone   ActivityLevel = 0
	ActivityYellow ActivityLevel = 1
	ActivityOrange ActivityLevel = 2
	ActivityRed    ActivityLevel = 3
)

func (a ActivityLevel) String() string {
	switch a {
	case ActivityYellow:
		return "yellow"
	case ActivityOrange:
		return "orange"
	case ActivityRed:
		return "red"
	default:
		return "none"
	}
}

// CountyWarning is a flood or landslide warning issued for a county.
type CountyWarning struct {
	ID            int           `json:"id"`
	Title         string        `json:"title,omitempty"`
	Text          string        `json:"text,omitempty"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	ActivityLabel string        `json:"activity_label"`
	ValidFrom     string        `json:"valid_from,omitempty"`
	ValidTo       string        `json:"valid_to,omitempty"`
}

var (
	warningIDPolicy    = Keys("Id", "id", "WarningId")
	warningTitlePolicy = Keys("WarningTitle", "Title")
	warningTextPolicy  = Keys("WarningText", "MainText", "Text")
	activityPolicy     = Keys("ActivityLevel")
)

// NormalizeCountyWarnings maps flood or landslide records. Entries with
// neither an id nor any text are dropped.
func NormalizeCountyWarnings(items []Fields) []CountyWarning {
	out := make([]CountyWarning, 0, len(items))
	for _, item := range items {
		w := CountyWarning{}
		w.ID, _ = ResolveInt(item, warningIDPolicy)
		w.Title, _ = ResolveString(item, warningTitlePolicy)
		w.Text, _ = ResolveString(item, warningTextPolicy)
		if lvl, ok := ResolveInt(item, activityPolicy); ok && lvl >= 1 && lvl <= 3 {
			w.ActivityLevel = ActivityLevel(lvl)
		}
		w.ActivityLabel = w.ActivityLevel.String()
		w.ValidFrom, _ = ResolveString(item, validFromPolicy)
		w.ValidTo, _ = ResolveString(item, validToPolicy)

		if w.ID == 0 && w.Title == "" && w.Text == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}
