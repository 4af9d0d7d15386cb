package api

import (
	"context"
	"time"

	"github.com/manhwawut/chapter-feed/app/feed"
	"github.com/manhwawut/chapter-feed/app/series"
	"github.com/manhwawut/chapter-feed/app/tasks"
)

type FeedService interface {
	GetLatestUpdatesFeed(ctx context.Context, now time.Time) ([]feed.LatestEntry, error)
	GetWindowedFeed(ctx context.Context, now time.Time, windowDays float64) ([]feed.WindowedEntry, error)
	GetSeriesDetails(ctx context.Context, id string) (*feed.SeriesDetails, error)
	GetChapterList(ctx context.Context, id string) (*feed.ChapterList, error)
	ListSeriesIDs(ctx context.Context) ([]string, error)
}

var _ FeedService = (*feed.Service)(nil)

type GeneratorInterface interface {
	Run(channel feed.Channel, entries []feed.WindowedEntry, now time.Time) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type CatalogInterface interface {
	Reload() error
	IsEnabled(id string) bool
	Count() int
}

var _ CatalogInterface = (*series.Catalog)(nil)

type Handler struct {
	service    FeedService
	generator  GeneratorInterface
	catalog    CatalogInterface
	scheduler  tasks.TaskSchedulerInterface
	windowDays float64
	now        func() time.Time
}
