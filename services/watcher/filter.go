package watcher

import (
	"log/slog"
	"tribewatch-backend/lib/scrapers/twstats"
	"tribewatch-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// narrows which ennoblements trigger notification. a nil *Filter
// disables filtering entirely. passed per cycle invocation so an
// operator can toggle it between cycles.
type Filter struct {
	Faction string `json:"faction"`
	// matching villages must have X strictly below this
	XMax int `json:"x_max"`
	// matching villages must have Y strictly above this
	YMin int `json:"y_min"`
}

const nearMissThreshold = 0.92

func (f *Filter) matchesFaction(e twstats.Ennoblement) bool {
	want := textutil.NormalizeName(f.Faction)
	for _, tag := range []string{e.OldTribe, e.NewTribe} {
		if tag == "" {
			continue
		}
		got := textutil.NormalizeName(tag)
		if got == want {
			return true
		}
		if matchr.JaroWinkler(got, want, false) > nearMissThreshold {
			slog.Debug(
				"tribe tag almost matches configured faction",
				"tag", tag,
				"faction", f.Faction,
				"village", e.VillageName,
			)
		}
	}
	return false
}

func (f *Filter) Matches(e twstats.Ennoblement) bool {
	if f == nil {
		return true
	}
	if !f.matchesFaction(e) {
		return false
	}
	return e.X < f.XMax && e.Y > f.YMin
}
