package tasks

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeImportSeries TaskType = "import_series"
)

const (
	DefaultMaxRetries = 3
)

var (
	retryInitialInterval = time.Second
	retryMaxInterval     = 30 * time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSeriesID() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	NextRetryDelay() time.Duration
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	SeriesID   string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time

	retry *backoff.ExponentialBackOff
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSeriesID() string {
	return t.SeriesID
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// NextRetryDelay returns the jittered exponential delay before the next attempt.
func (t *Task) NextRetryDelay() time.Duration {
	return t.retry.NextBackOff()
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, seriesID string) Task {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = retryInitialInterval
	retry.MaxInterval = retryMaxInterval
	retry.MaxElapsedTime = 0
	retry.Reset()

	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		SeriesID:   seriesID,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		retry:      retry,
	}
}
