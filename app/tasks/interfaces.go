package tasks

import (
	"context"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run background imports and by the API to
// trigger an import of a single series.
//
//	scheduler := NewScheduler(fileStore, seriesRepo, SchedulerOptions{...})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.ImportSeries("solo-leveling")
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	ImportSeries(seriesID string) (TaskInterface, error)
}

// DocumentSource provides raw descriptor documents to import.
// series.FileStore implements it.
type DocumentSource interface {
	ListSeriesIDs(ctx context.Context) ([]string, error)
	ReadDocument(ctx context.Context, id string) ([]byte, error)
}
