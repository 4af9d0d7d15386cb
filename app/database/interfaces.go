package database

import (
	"context"

	"github.com/manhwawut/chapter-feed/app/series"
)

// DocumentRepository stores raw series descriptors imported from the file
// store and serves them back as a series.Loader.
type DocumentRepository interface {
	series.Loader

	GetDocumentHash(ctx context.Context, id string) (string, bool, error)
	GetSeriesCount(ctx context.Context) (int, error)

	UpsertDocument(ctx context.Context, id string, document []byte, hash string) error
}
