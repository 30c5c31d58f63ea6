package session

import "strings"

// Merge folds newly extracted items into an existing category collection.
//
// Every incoming item is trimmed; empty items are discarded. An item is
// appended iff its trimmed form is not already present in the accumulated
// result. Existing items keep their relative order and get trimmed the same
// way, so merging is idempotent: Merge(Merge(e, i), i) == Merge(e, i).
func Merge(existing, incoming []string) []string {
	merged := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	add := func(item string) {
		item = strings.TrimSpace(item)
		if item == "" {
			return
		}
		if _, ok := seen[item]; ok {
			return
		}
		seen[item] = struct{}{}
		merged = append(merged, item)
	}

	for _, item := range existing {
		add(item)
	}
	for _, item := range incoming {
		add(item)
	}

	return merged
}

// MergeCategories applies Merge per category and reports how many items
// were newly accepted into each one.
func MergeCategories(existing, incoming Categories) (Categories, Categories) {
	merged := Categories{
		Unsolved:     Merge(existing.Unsolved, incoming.Unsolved),
		Achievements: Merge(existing.Achievements, incoming.Achievements),
		Gratitude:    Merge(existing.Gratitude, incoming.Gratitude),
	}
	accepted := Categories{
		Unsolved:     merged.Unsolved[min(len(existing.Unsolved), len(merged.Unsolved)):],
		Achievements: merged.Achievements[min(len(existing.Achievements), len(merged.Achievements)):],
		Gratitude:    merged.Gratitude[min(len(existing.Gratitude), len(merged.Gratitude)):],
	}
	return merged, accepted
}
