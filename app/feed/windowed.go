package feed

import (
	"strings"
	"time"

	"github.com/manhwawut/chapter-feed/app/series"
)

// DefaultWindowDays is the width of the windowed feed when none is given.
const DefaultWindowDays = 3.0

const day = 24 * time.Hour

// AggregateWindowed collects every upload younger than windowDays across all
// descriptors. Each history is walked newest first and the walk stops at the
// first upload outside the window, so a history that is not time-ascending
// can lose recent uploads stored before a stale one. A NaN window matches
// nothing.
func AggregateWindowed(descs []*series.Descriptor, now time.Time, windowDays float64, imageBaseURL string) []WindowedEntry {
	entries := make([]WindowedEntry, 0)

	for _, d := range descs {
		if d == nil {
			continue
		}

		title := seriesTitle(d.DisplayName, d.ID)
		image := ResolveImageRef(imageBaseURL, d.UpdateImageRef)

		for i := len(d.UploadHistory) - 1; i >= 0; i-- {
			event := d.UploadHistory[i]

			elapsedDays := float64(now.Sub(event.Instant)) / float64(day)
			if !(elapsedDays <= windowDays) {
				break
			}

			entries = append(entries, WindowedEntry{
				SeriesID:          d.ID,
				Title:             title,
				Chapter:           event.Chapter.String(),
				ChapterLabel:      chapterLabel(event.Chapter),
				RawTime:           event.RawTime,
				RelativeTimeLabel: FormatRecency(event.Instant, now),
				Instant:           event.Instant,
				UpdateImageRef:    image,
			})
		}
	}

	return entries
}

// ResolveImageRef joins a stored image path onto base. Empty refs stay empty
// and absolute URLs are returned unchanged.
func ResolveImageRef(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || base == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
