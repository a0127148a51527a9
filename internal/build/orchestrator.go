package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"icandy/internal/associations"
	"icandy/internal/fileutil"
	"icandy/internal/logging"
	"icandy/internal/textutil"
	"icandy/internal/unsplash"
)

// Options configures an Orchestrator.
type Options struct {
	AssetsPerKey int
	AssetDir     string
	StorePath    string
	Logger       *slog.Logger
	Recorder     RunRecorder
	Validator    AssetValidator
	Clock        func() time.Time
}

// Orchestrator drives a single-threaded build: for each key it decides
// whether to skip or fetch, downloads results and persists the store.
type Orchestrator struct {
	fetcher Fetcher
	store   *associations.Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	last Summary
}

// New validates options and returns an orchestrator.
func New(fetcher Fetcher, store *associations.Store, opts Options) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, errors.New("build: fetcher is required")
	}
	if store == nil {
		return nil, errors.New("build: association store is required")
	}
	if opts.AssetsPerKey <= 0 {
		return nil, fmt.Errorf("build: assets per key must be positive, got %d", opts.AssetsPerKey)
	}
	if strings.TrimSpace(opts.AssetDir) == "" {
		return nil, errors.New("build: asset directory is required")
	}
	if strings.TrimSpace(opts.StorePath) == "" {
		return nil, errors.New("build: store path is required")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "build"),
		now:     now,
	}, nil
}

// Total reports the number of keys in the last run.
func (o *Orchestrator) Total() int { return o.last.Total }

// Processed reports the keys that gained assets in the last run.
func (o *Orchestrator) Processed() int { return o.last.Processed }

// Failed reports the keys that failed in the last run.
func (o *Orchestrator) Failed() int { return o.last.Failed }

// FailedKeys returns the failed keys of the last run in source order.
func (o *Orchestrator) FailedKeys() []string {
	return append([]string(nil), o.last.FailedKeys...)
}

// Run executes one build over the keys produced by source. Per-key failures
// are collected in the summary. Credential rejection, interruption, lock
// contention, an unusable key source and store write failures abort the run.
func (o *Orchestrator) Run(ctx context.Context, source KeySource) (Summary, error) {
	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, o.logger)

	lock := flock.New(o.opts.StorePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return o.finish(summary, fmt.Errorf("acquire build lock: %w", err))
	}
	if !locked {
		return o.finish(summary, fmt.Errorf("%w: %s", ErrLocked, o.opts.StorePath))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release build lock", logging.Error(err))
		}
	}()

	if err := o.reload(); err != nil {
		return o.finish(summary, err)
	}

	keys, err := loadKeys(ctx, source)
	if err != nil {
		return o.finish(summary, err)
	}
	summary.Total = len(keys)
	logger.Info("build started",
		logging.Int("keys", len(keys)),
		logging.Int("assets_per_key", o.opts.AssetsPerKey),
		logging.String("store", o.opts.StorePath))

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return o.abort(ctx, logger, summary, fmt.Errorf("%w: %w", unsplash.ErrInterrupted, err))
		}
		keyLogger := logger.With(logging.String(logging.FieldKey, key))

		existing := len(o.store.Get(key))
		if existing >= o.opts.AssetsPerKey {
			summary.Skipped++
			keyLogger.Debug("key already satisfied, skipping", logging.Int("assets", existing))
			continue
		}

		keyLogger.Info("processing key",
			logging.Int("position", i+1),
			logging.Int("total", len(keys)),
			logging.Int("existing_assets", existing))

		paths, reason, err := o.fetchKey(ctx, keyLogger, key)
		if err != nil {
			if len(paths) > 0 {
				o.store.Add(key, paths...)
				summary.Processed++
				summary.Assets += len(paths)
				if saveErr := o.save(); saveErr != nil {
					return o.abort(ctx, logger, summary, saveErr)
				}
				keyLogger.Info("kept partial key before stopping", logging.Int("downloaded", len(paths)))
			}
			return o.abort(ctx, logger, summary, err)
		}
		if len(paths) == 0 {
			summary.Failed++
			summary.FailedKeys = append(summary.FailedKeys, key)
			summary.Failures = append(summary.Failures, KeyFailure{Key: key, Reason: reason})
			logging.WarnWithContext(keyLogger, "key failed", "key_failed",
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "rerun the build later to retry failed keys"),
				logging.String(logging.FieldImpact, "key has no new assets"))
			continue
		}

		o.store.Add(key, paths...)
		summary.Processed++
		summary.Assets += len(paths)
		if err := o.save(); err != nil {
			return o.abort(ctx, logger, summary, err)
		}
		keyLogger.Info("key processed", logging.Int("downloaded", len(paths)))
	}

	if err := o.save(); err != nil {
		return o.abort(ctx, logger, summary, err)
	}
	summary, _ = o.finish(summary, nil)
	o.record(ctx, logger, summary)

	logger.Info("build finished",
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("assets", summary.Assets),
		logging.Duration("elapsed", summary.Duration()))
	return summary, nil
}

// fetchKey searches for key and downloads each result. It returns the local
// paths that were stored successfully, or a failure reason when there are
// none. A non-nil error is fatal to the run; on interruption the paths
// completed before it are still returned so the caller can keep them.
func (o *Orchestrator) fetchKey(ctx context.Context, logger *slog.Logger, key string) ([]string, string, error) {
	uris, err := o.fetcher.Search(ctx, key, o.opts.AssetsPerKey)
	if err != nil {
		if isFatal(ctx, err) {
			return nil, "", err
		}
		return nil, "search failed: " + err.Error(), nil
	}
	if len(uris) == 0 {
		return nil, "no images found", nil
	}

	token := textutil.AssetToken(key)
	next := 1
	paths := make([]string, 0, len(uris))
	for _, uri := range uris {
		path := o.nextAssetPath(token, &next)
		ok := o.fetcher.Download(ctx, uri, path)
		if err := ctx.Err(); err != nil {
			if ok {
				_ = os.Remove(path)
			}
			return paths, "", fmt.Errorf("%w: %w", unsplash.ErrInterrupted, err)
		}
		if !ok {
			continue
		}
		if o.opts.Validator != nil {
			if err := o.opts.Validator.Validate(path); err != nil {
				_ = os.Remove(path)
				logging.WarnWithContext(logger, "downloaded file is not a usable image", "asset_invalid",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "provider returned a non-image body"),
					logging.String(logging.FieldImpact, "asset discarded"))
				continue
			}
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, "all downloads failed", nil
	}
	return paths, "", nil
}

// nextAssetPath picks <token>_<n>.jpg for the lowest n not already present
// on disk, so assets from earlier runs are never overwritten.
func (o *Orchestrator) nextAssetPath(token string, next *int) string {
	for {
		path := filepath.Join(o.opts.AssetDir, fmt.Sprintf("%s_%d.jpg", token, *next))
		*next++
		if !fileutil.Exists(path) {
			return path
		}
	}
}

// reload replaces the in-memory store with the file on disk once the lock is
// held, so work saved by a build that finished while this one waited is kept.
// A store that does not exist yet leaves the in-memory contents untouched.
func (o *Orchestrator) reload() error {
	info, err := os.Stat(o.opts.StorePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: stat: %w", ErrPersist, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	if err := o.store.Load(o.opts.StorePath); err != nil {
		return fmt.Errorf("%w: reload: %w", ErrPersist, err)
	}
	return nil
}

func (o *Orchestrator) save() error {
	if err := o.store.Save(o.opts.StorePath); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// abort finalizes and records a run that hit a fatal error. Completed keys
// were already saved after each success.
func (o *Orchestrator) abort(ctx context.Context, logger *slog.Logger, summary Summary, cause error) (Summary, error) {
	summary, err := o.finish(summary, cause)
	o.record(ctx, logger, summary)
	logging.ErrorWithContext(logger, "build aborted", "build_aborted",
		logging.String("status", summary.Status),
		logging.Int("processed", summary.Processed),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, hintFor(cause)))
	return summary, err
}

func (o *Orchestrator) finish(summary Summary, cause error) (Summary, error) {
	summary.FinishedAt = o.now()
	summary.StoreKeys = o.store.KeyCount()
	summary.StoreAssets = o.store.AssetCount()
	switch {
	case cause == nil:
		summary.Status = StatusCompleted
	case errors.Is(cause, unsplash.ErrInterrupted):
		summary.Status = StatusInterrupted
		summary.Error = cause.Error()
	default:
		summary.Status = StatusFailed
		summary.Error = cause.Error()
	}
	o.last = summary
	return summary, cause
}

func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, summary Summary) {
	if o.opts.Recorder == nil {
		return
	}
	if err := o.opts.Recorder.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
		logging.WarnWithContext(logger, "failed to record build run", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db permissions"),
			logging.String(logging.FieldImpact, "run missing from icandy history"))
	}
}

func loadKeys(ctx context.Context, source KeySource) ([]string, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no key source configured", ErrNoKeys)
	}
	raw, err := source.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoKeys, err)
	}
	seen := make(map[string]struct{}, len(raw))
	keys := make([]string, 0, len(raw))
	for _, key := range raw {
		key = associations.NormalizeKey(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: key source is empty", ErrNoKeys)
	}
	return keys, nil
}

func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, unsplash.ErrCredentials) ||
		errors.Is(err, unsplash.ErrInterrupted)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, unsplash.ErrCredentials):
		return "check the Unsplash access key"
	case errors.Is(err, unsplash.ErrInterrupted):
		return "rerun the build to resume; completed keys were saved"
	case errors.Is(err, ErrPersist):
		return "check that paths.associations_file is writable"
	default:
		return "check logs for details"
	}
}
