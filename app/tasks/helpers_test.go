package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manhwawut/chapter-feed/app/database"
	"github.com/manhwawut/chapter-feed/app/series"
)

var errDiskFull = errors.New("disk full")

type storedDocument struct {
	document string
	hash     string
}

// memoryRepository keeps documents in a map. The first failUpserts upserts
// return errDiskFull.
type memoryRepository struct {
	mu          sync.Mutex
	docs        map[string]storedDocument
	upserts     int
	failUpserts int
}

var _ database.DocumentRepository = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[string]storedDocument)}
}

func (r *memoryRepository) ListSeriesIDs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memoryRepository) LoadDescriptor(_ context.Context, id string) (*series.Descriptor, error) {
	r.mu.Lock()
	doc, ok := r.docs[id]
	r.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return series.Decode(id, []byte(doc.document))
}

func (r *memoryRepository) GetDocumentHash(_ context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	return doc.hash, ok, nil
}

func (r *memoryRepository) GetSeriesCount(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs), nil
}

func (r *memoryRepository) UpsertDocument(_ context.Context, id string, document []byte, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upserts++
	if r.failUpserts > 0 {
		r.failUpserts--
		return errDiskFull
	}

	r.docs[id] = storedDocument{document: string(document), hash: hash}
	return nil
}

func (r *memoryRepository) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

func (r *memoryRepository) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.docs[id]
	return ok
}

func writeDescriptor(t *testing.T, dir, id, content string) {
	t.Helper()

	seriesDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(seriesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seriesDir, series.DescriptorFileName), []byte(content), 0o644))
}

func fastRetries(t *testing.T) {
	t.Helper()

	initial, maxInterval := retryInitialInterval, retryMaxInterval
	retryInitialInterval, retryMaxInterval = 10*time.Millisecond, 50*time.Millisecond
	t.Cleanup(func() {
		retryInitialInterval, retryMaxInterval = initial, maxInterval
	})
}
