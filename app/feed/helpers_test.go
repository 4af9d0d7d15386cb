package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manhwawut/chapter-feed/app/series"
)

type upload struct {
	chapter int
	time    string
}

func mustTime(t *testing.T, raw string) time.Time {
	t.Helper()

	instant, err := series.ParseTime(raw)
	require.NoError(t, err)
	return instant
}

func newDescriptor(t *testing.T, id, name string, uploads ...upload) *series.Descriptor {
	t.Helper()

	d := &series.Descriptor{
		ID:            id,
		DisplayName:   name,
		UploadHistory: make([]series.UploadEvent, 0, len(uploads)),
		Chapters:      make([]series.ChapterNumber, 0, len(uploads)),
	}
	for _, u := range uploads {
		chapter := series.ChapterFromInt(u.chapter)
		d.UploadHistory = append(d.UploadHistory, series.UploadEvent{
			Chapter: chapter,
			RawTime: u.time,
			Instant: mustTime(t, u.time),
		})
		d.Chapters = append(d.Chapters, chapter)
	}
	return d
}

var errSourceDown = errors.New("source down")

// fakeLoader serves raw JSON documents keyed by series id. Ids listed in
// unavailable fail to read; ids listed in slow block until ctx is done.
type fakeLoader struct {
	ids         []string
	docs        map[string]string
	unavailable map[string]bool
	slow        map[string]bool
	listErr     error

	mu    sync.Mutex
	loads int
}

var _ series.Loader = (*fakeLoader)(nil)

func (f *fakeLoader) ListSeriesIDs(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeLoader) LoadDescriptor(ctx context.Context, id string) (*series.Descriptor, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()

	if f.slow[id] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.unavailable[id] {
		return nil, fmt.Errorf("%w: %s: %w", series.ErrDescriptorUnavailable, id, errSourceDown)
	}

	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return series.Decode(id, []byte(doc))
}
