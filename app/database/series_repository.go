package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/manhwawut/chapter-feed/app/series"
)

const seriesTable = "series_documents"

var _ DocumentRepository = (*SeriesRepository)(nil)

type SeriesRepository struct {
	db *DB
}

func NewSeriesRepository(db *DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

func (r *SeriesRepository) ListSeriesIDs(ctx context.Context) ([]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id").From(seriesTable).OrderBy("id").Asc()
	query, args := sb.Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan series id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series: %w", err)
	}

	return ids, nil
}

func (r *SeriesRepository) LoadDescriptor(ctx context.Context, id string) (*series.Descriptor, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("document").From(seriesTable).Where(sb.Equal("id", id))
	query, args := sb.Build()

	var document string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", series.ErrDescriptorUnavailable, id, err)
	}

	return series.Decode(id, []byte(document))
}

// GetDocumentHash returns the hash of the stored document and whether the
// series exists.
func (r *SeriesRepository) GetDocumentHash(ctx context.Context, id string) (string, bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("document_hash").From(seriesTable).Where(sb.Equal("id", id))
	query, args := sb.Build()

	var hash string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get document hash: %w", err)
	}

	return hash, true, nil
}

func (r *SeriesRepository) GetSeriesCount(ctx context.Context) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From(seriesTable)
	query, args := sb.Build()

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count series: %w", err)
	}

	return count, nil
}

func (r *SeriesRepository) UpsertDocument(ctx context.Context, id string, document []byte, hash string) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto(seriesTable).
		Cols("id", "document", "document_hash", "updated_at").
		Values(id, string(document), hash, time.Now().UTC())
	ib.SQL("ON CONFLICT(id) DO UPDATE SET document = excluded.document, document_hash = excluded.document_hash, updated_at = excluded.updated_at")
	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert series document: %w", err)
	}

	return nil
}
