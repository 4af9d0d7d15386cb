package feed

import (
	"time"

	"github.com/manhwawut/chapter-feed/app/series"
)

// DefaultRecentChapters is how many chapters a LatestEntry lists.
const DefaultRecentChapters = 3

// epoch is the latest instant of a series with no uploads, so it sorts last.
var epoch = time.Unix(0, 0).UTC()

// AggregateLatest builds one entry per descriptor holding its newest tail
// uploads. Nil descriptors are ignored. The result is in input order.
func AggregateLatest(descs []*series.Descriptor, now time.Time, tail int) []LatestEntry {
	if tail <= 0 {
		tail = DefaultRecentChapters
	}

	entries := make([]LatestEntry, 0, len(descs))
	for _, d := range descs {
		if d == nil {
			continue
		}

		history := d.UploadHistory
		start := max(len(history)-tail, 0)

		recent := make([]RecentChapter, 0, len(history)-start)
		for i := len(history) - 1; i >= start; i-- {
			event := history[i]
			recent = append(recent, RecentChapter{
				Number:            event.Chapter,
				Label:             chapterLabel(event.Chapter),
				RelativeTimeLabel: FormatRecency(event.Instant, now),
			})
		}

		latest := epoch
		if event, ok := d.LatestEvent(); ok {
			latest = event.Instant
		}

		entries = append(entries, LatestEntry{
			SeriesID:       d.ID,
			Title:          seriesTitle(d.DisplayName, d.ID),
			CoverImageRef:  d.CoverImageRef,
			RecentChapters: recent,
			LatestInstant:  latest,
		})
	}

	return entries
}

func chapterLabel(n series.ChapterNumber) string {
	return "Chapter " + n.String()
}
