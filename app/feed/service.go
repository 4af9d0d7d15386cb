package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/manhwawut/chapter-feed/app/series"
)

var ErrSeriesNotFound = errors.New("series not found")

const (
	DefaultWorkers = 8
	DefaultTimeout = 10 * time.Second
)

type Options struct {
	Workers           int
	Timeout           time.Duration
	RecentChapters    int
	WindowDays        float64
	ImageBaseURL      string
	CheckHistoryOrder bool
}

// Service loads descriptors for every known series and builds the feeds.
// Descriptors are read fresh on every call.
type Service struct {
	loader series.Loader
	opts   Options
}

func NewService(loader series.Loader, opts Options) *Service {
	opts.Workers = lo.CoalesceOrEmpty(max(opts.Workers, 0), DefaultWorkers)
	opts.Timeout = lo.CoalesceOrEmpty(max(opts.Timeout, 0), DefaultTimeout)
	opts.RecentChapters = lo.CoalesceOrEmpty(max(opts.RecentChapters, 0), DefaultRecentChapters)
	if !validWindow(opts.WindowDays) {
		opts.WindowDays = DefaultWindowDays
	}

	return &Service{
		loader: loader,
		opts:   opts,
	}
}

func validWindow(days float64) bool {
	return days > 0 && !math.IsNaN(days)
}

func (s *Service) Options() Options {
	return s.opts
}

// GetLatestUpdatesFeed returns one entry per series, newest upload first.
func (s *Service) GetLatestUpdatesFeed(ctx context.Context, now time.Time) ([]LatestEntry, error) {
	descs, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	entries := AggregateLatest(descs, now.UTC(), s.opts.RecentChapters)
	SortByRecency(entries, latestInstant)
	return entries, nil
}

// GetWindowedFeed returns every upload of the last windowDays days, newest
// first. A non-positive or NaN windowDays selects the configured window.
func (s *Service) GetWindowedFeed(ctx context.Context, now time.Time, windowDays float64) ([]WindowedEntry, error) {
	if !validWindow(windowDays) {
		windowDays = s.opts.WindowDays
	}

	descs, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	entries := AggregateWindowed(descs, now.UTC(), windowDays, s.opts.ImageBaseURL)
	SortByRecency(entries, windowedInstant)
	return entries, nil
}

func (s *Service) ListSeriesIDs(ctx context.Context) ([]string, error) {
	return s.loader.ListSeriesIDs(ctx)
}

func (s *Service) GetSeriesDetails(ctx context.Context, id string) (*SeriesDetails, error) {
	d, err := s.descriptor(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewSeriesDetails(d, s.opts.ImageBaseURL), nil
}

func (s *Service) GetChapterList(ctx context.Context, id string) (*ChapterList, error) {
	d, err := s.descriptor(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewChapterList(d), nil
}

func (s *Service) descriptor(ctx context.Context, id string) (*series.Descriptor, error) {
	if !series.ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrSeriesNotFound, id)
	}

	d, err := s.loader.LoadDescriptor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", id, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrSeriesNotFound, id)
	}
	return d, nil
}

// collect loads every series through a bounded pool of workers. When the
// aggregation timeout fires the descriptors loaded so far are returned; a
// cancelled parent context is an error.
func (s *Service) collect(ctx context.Context) ([]*series.Descriptor, error) {
	ids, err := s.loader.ListSeriesIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	results := make([]*series.Descriptor, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(s.opts.Workers, len(ids)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.load(loadCtx, ids[i])
			}
		}()
	}

dispatch:
	for i := range ids {
		select {
		case jobs <- i:
		case <-loadCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	descs := lo.Filter(results, func(d *series.Descriptor, _ int) bool {
		return d != nil
	})

	if loadCtx.Err() != nil {
		slog.Warn("Aggregation timed out, serving partial feed",
			"loaded", len(descs),
			"total", len(ids),
			"timeout", s.opts.Timeout)
	}

	return descs, nil
}

func (s *Service) load(ctx context.Context, id string) *series.Descriptor {
	if ctx.Err() != nil {
		return nil
	}

	d, err := s.loader.LoadDescriptor(ctx, id)
	switch {
	case err == nil && d == nil:
		slog.Debug("Series has no descriptor", "series", id)
		return nil
	case err == nil:
		if s.opts.CheckHistoryOrder {
			if i := d.OutOfOrderAt(); i >= 0 {
				slog.Warn("Upload history is not time-ascending", "series", id, "index", i)
			}
		}
		return d
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, series.ErrMalformedDescriptor):
		slog.Warn("Skipping malformed series", "series", id, "error", err)
		return nil
	default:
		slog.Warn("Skipping unavailable series", "series", id, "error", err)
		return nil
	}
}
