package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/manhwawut/chapter-feed/app/database"
	"github.com/manhwawut/chapter-feed/app/series"
)

type ImportOutcome string

const (
	ImportPending   ImportOutcome = ""
	ImportStored    ImportOutcome = "stored"
	ImportUnchanged ImportOutcome = "unchanged"
	ImportMissing   ImportOutcome = "missing"
	ImportRejected  ImportOutcome = "rejected"
)

// ImportSeriesTask copies one series descriptor from the file store into the
// database. Documents that fail to decode are rejected without retry.
type ImportSeriesTask struct {
	Task
	Outcome ImportOutcome
	source  DocumentSource
	repo    database.DocumentRepository
}

func NewImportSeriesTask(seriesID string, source DocumentSource, repo database.DocumentRepository) *ImportSeriesTask {
	return &ImportSeriesTask{
		Task:   NewTask(TaskTypeImportSeries, seriesID),
		source: source,
		repo:   repo,
	}
}

func (t *ImportSeriesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	document, err := t.source.ReadDocument(ctx, t.SeriesID)
	if err != nil {
		return fmt.Errorf("failed to read descriptor: %w", err)
	}
	if document == nil {
		slog.Debug("Series has no descriptor, skipping import", "series", t.SeriesID)
		t.Outcome = ImportMissing
		return nil
	}

	sum := sha256.Sum256(document)
	hash := hex.EncodeToString(sum[:])

	stored, ok, err := t.repo.GetDocumentHash(ctx, t.SeriesID)
	if err != nil {
		return fmt.Errorf("failed to check stored descriptor: %w", err)
	}
	if ok && stored == hash {
		slog.Debug("Series unchanged, skipping import", "series", t.SeriesID)
		t.Outcome = ImportUnchanged
		return nil
	}

	if _, err := series.Decode(t.SeriesID, document); err != nil {
		slog.Warn("Task skipped", "type", "ImportSeries", "series", t.SeriesID, "error", err)
		t.Outcome = ImportRejected
		return nil
	}

	if err := t.repo.UpsertDocument(ctx, t.SeriesID, document, hash); err != nil {
		return fmt.Errorf("failed to store descriptor: %w", err)
	}
	t.Outcome = ImportStored

	slog.Info("Task completed",
		"type", "ImportSeries",
		"series", t.SeriesID,
		"duration", t.GetDuration())

	return nil
}
