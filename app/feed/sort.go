package feed

import (
	"slices"
	"time"
)

// SortByRecency orders entries newest first. Entries with equal instants keep
// their relative order.
func SortByRecency[E any](entries []E, instant func(E) time.Time) {
	slices.SortStableFunc(entries, func(a, b E) int {
		return instant(b).Compare(instant(a))
	})
}

func latestInstant(e LatestEntry) time.Time {
	return e.LatestInstant
}

func windowedInstant(e WindowedEntry) time.Time {
	return e.Instant
}
