package tracker

import (
	"github.com/2beens/fittrack/internal/schedule"
)

// Shape tells how a weights document is laid out.
type Shape string

const (
	ShapeEmpty Shape = "empty"
	// ShapeCanonical is keyed by day name: day -> slug -> WeightPair.
	ShapeCanonical Shape = "canonical"
	// ShapeLegacy is keyed by week: week -> day -> slug -> WeightPair.
	ShapeLegacy Shape = "legacy"
	// ShapeUnrecognized has keys that are neither days nor weeks.
	ShapeUnrecognized Shape = "unrecognized"
)

func Classify(raw map[string]any) Shape {
	if len(raw) == 0 {
		return ShapeEmpty
	}

	hasWeekKey := false
	for key := range raw {
		if schedule.IsDay(key) {
			return ShapeCanonical
		}
		if schedule.IsWeekKey(key) {
			hasWeekKey = true
		}
	}
	if hasWeekKey {
		return ShapeLegacy
	}
	return ShapeUnrecognized
}

// Normalize returns the weights document in canonical shape
// (day -> slug -> WeightPair).
//
// A canonical document is returned as is, callers must not modify it.
// A legacy per-week document is collapsed week by week, oldest first: each
// week's day map is shallow merged over the result, so for the same day and
// slug the latest week wins while slugs only present in older weeks are kept.
// Anything else normalizes to an empty map.
func Normalize(raw map[string]any) map[string]any {
	switch Classify(raw) {
	case ShapeCanonical:
		return raw
	case ShapeLegacy:
		return mergeLegacyWeeks(raw)
	default:
		return map[string]any{}
	}
}

func mergeLegacyWeeks(raw map[string]any) map[string]any {
	weekKeys := make([]string, 0, len(raw))
	for key := range raw {
		if schedule.IsWeekKey(key) {
			weekKeys = append(weekKeys, key)
		}
	}

	merged := map[string]any{}
	for _, week := range schedule.SortWeekKeys(weekKeys) {
		byDay, ok := raw[week].(map[string]any)
		if !ok {
			continue
		}
		for day, slugs := range byDay {
			dayMerged, _ := merged[day].(map[string]any)
			if dayMerged == nil {
				dayMerged = map[string]any{}
				merged[day] = dayMerged
			}
			slugMap, ok := slugs.(map[string]any)
			if !ok {
				continue
			}
			for slug, pair := range slugMap {
				dayMerged[slug] = pair
			}
		}
	}
	return merged
}
