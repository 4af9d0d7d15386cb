package feed

import (
	"github.com/samber/lo"

	"github.com/manhwawut/chapter-feed/app/series"
)

const dateLayout = "02/01/2006"

// NewSeriesDetails prepares a descriptor for display. Image refs are resolved
// against imageBaseURL and UpdatedOn holds the date of the newest upload, or
// "--" when there is none.
func NewSeriesDetails(d *series.Descriptor, imageBaseURL string) *SeriesDetails {
	updatedOn := "--"
	if event, ok := d.LatestEvent(); ok {
		updatedOn = event.Instant.Format(dateLayout)
	}

	return &SeriesDetails{
		SeriesID:       d.ID,
		Name:           d.DisplayName,
		Title:          seriesTitle(d.DisplayName, d.ID),
		CoverImageRef:  ResolveImageRef(imageBaseURL, d.CoverImageRef),
		UpdateImageRef: ResolveImageRef(imageBaseURL, d.UpdateImageRef),
		SideImageRef:   ResolveImageRef(imageBaseURL, d.SideImageRef),
		Synopsis:       d.Synopsis,
		Author:         d.Author,
		Artist:         d.Artist,
		Genres:         lo.Ternary(d.Genres == nil, []string{}, d.Genres),
		Keywords:       lo.Ternary(d.Keywords == nil, []string{}, d.Keywords),
		ChaptersAmount: d.ChaptersAmount,
		Uploads: lo.Map(d.UploadHistory, func(event series.UploadEvent, _ int) UploadRecord {
			return UploadRecord{Chapter: event.Chapter, Time: event.RawTime}
		}),
		UpdatedOn: updatedOn,
	}
}

// NewChapterList lists chapter slugs newest first. Chapters whose upload time
// did not parse are still listed.
func NewChapterList(d *series.Descriptor) *ChapterList {
	chapters := make([]string, 0, len(d.Chapters))
	for i := len(d.Chapters) - 1; i >= 0; i-- {
		chapters = append(chapters, "chapter-"+d.Chapters[i].String())
	}

	return &ChapterList{
		Chapters:   chapters,
		MaxChapter: d.ChaptersAmount,
	}
}
