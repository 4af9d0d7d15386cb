package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/manhwawut/chapter-feed/app/database"
	"github.com/manhwawut/chapter-feed/app/series"
)

var (
	ErrQueueFull     = errors.New("task queue is full")
	ErrInvalidSeries = errors.New("invalid series id")
)

const (
	defaultInterval    = 5 * time.Minute
	defaultQueueSize   = 300
	defaultTaskTimeout = 5 * time.Minute
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerOptions struct {
	Interval    time.Duration
	WorkerCount int
	QueueSize   int
}

type Scheduler struct {
	source      DocumentSource
	repo        database.DocumentRepository
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(source DocumentSource, repo database.DocumentRepository, opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		source:      source,
		repo:        repo,
		interval:    lo.CoalesceOrEmpty(max(opts.Interval, 0), defaultInterval),
		workerCount: max(opts.WorkerCount, 1),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, lo.CoalesceOrEmpty(max(opts.QueueSize, 0), defaultQueueSize)),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and pending retries and waits for the workers.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return ErrQueueFull
	}
}

// ImportSeries queues an import of one series outside the regular interval.
func (s *Scheduler) ImportSeries(seriesID string) (TaskInterface, error) {
	if !series.ValidID(seriesID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeries, seriesID)
	}

	task := NewImportSeriesTask(seriesID, s.source, s.repo)
	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Scheduler) enqueueTasks() {
	ids, err := s.source.ListSeriesIDs(s.ctx)
	if err != nil {
		slog.Error("Failed to list series for import", "error", err)
		return
	}
	if len(ids) == 0 {
		slog.Debug("No series found to import")
		return
	}

	slog.Debug("Scheduling series imports", "count", len(ids))

	for _, id := range ids {
		task := NewImportSeriesTask(id, s.source, s.repo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportSeriesTask", "series", id, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, defaultTaskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() || s.ctx.Err() != nil {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := task.NextRetryDelay()

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "series", task.GetSeriesID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
