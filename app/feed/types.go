package feed

import (
	"time"

	"github.com/manhwawut/chapter-feed/app/series"
)

// RecentChapter is one element of a LatestEntry, newest first.
type RecentChapter struct {
	Number            series.ChapterNumber `json:"number"`
	Label             string               `json:"label"`
	RelativeTimeLabel string               `json:"relativeTimeLabel"`
}

// LatestEntry summarises a single series for the latest updates feed.
type LatestEntry struct {
	SeriesID       string          `json:"seriesId"`
	Title          string          `json:"title"`
	CoverImageRef  string          `json:"coverImageRef"`
	RecentChapters []RecentChapter `json:"recentChapters"`
	LatestInstant  time.Time       `json:"latestInstant"`
}

// WindowedEntry is one chapter upload inside the recency window.
type WindowedEntry struct {
	SeriesID          string    `json:"seriesId"`
	Title             string    `json:"title"`
	Chapter           string    `json:"-"`
	ChapterLabel      string    `json:"chapterLabel"`
	RawTime           string    `json:"rawTime"`
	RelativeTimeLabel string    `json:"relativeTimeLabel"`
	Instant           time.Time `json:"instant"`
	UpdateImageRef    string    `json:"updateImageRef"`
}

// SeriesDetails is the descriptor of one series prepared for display.
type SeriesDetails struct {
	SeriesID       string         `json:"seriesId"`
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	CoverImageRef  string         `json:"coverImageRef"`
	UpdateImageRef string         `json:"updateImageRef"`
	SideImageRef   string         `json:"sideImageRef"`
	Synopsis       string         `json:"synopsis"`
	Author         string         `json:"author"`
	Artist         string         `json:"artist"`
	Genres         []string       `json:"genres"`
	Keywords       []string       `json:"keywords"`
	ChaptersAmount *int           `json:"chaptersAmount"`
	Uploads        []UploadRecord `json:"uploads"`
	UpdatedOn      string         `json:"updatedOn"`
}

type UploadRecord struct {
	Chapter series.ChapterNumber `json:"chapter"`
	Time    string               `json:"time"`
}

// ChapterList is the navigation list of a series.
type ChapterList struct {
	Chapters   []string `json:"chapters"`
	MaxChapter *int     `json:"maxChapter"`
}
