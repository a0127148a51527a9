package build

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoKeys reports an empty or unreadable key source.
	ErrNoKeys = errors.New("build: no usable keys")
	// ErrPersist reports that the association store could not be written.
	ErrPersist = errors.New("build: persist association store")
	// ErrLocked reports that another build holds the store lock.
	ErrLocked = errors.New("build: association store is locked by another build")
)

// Fetcher searches the image provider and downloads results.
type Fetcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
	Download(ctx context.Context, uri, localPath string) bool
}

// KeySource yields the ordered keys for a run.
type KeySource interface {
	Keys(ctx context.Context) ([]string, error)
}

// RunRecorder persists a finished run summary.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary Summary) error
}

// AssetValidator rejects downloaded files that are not usable images.
type AssetValidator interface {
	Validate(path string) error
}

// Run outcomes stored in Summary.Status.
const (
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// KeyFailure records why a key produced no assets.
type KeyFailure struct {
	Key    string
	Reason string
}

// Summary describes one build run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string

	Total     int
	Processed int
	Skipped   int
	Failed    int
	// FailedKeys lists each failing key once, in source order.
	FailedKeys []string
	Failures   []KeyFailure

	// Assets counts files downloaded during this run.
	Assets      int
	StoreKeys   int
	StoreAssets int
}

// Duration reports how long the run took.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
