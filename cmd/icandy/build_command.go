package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"icandy/internal/associations"
	"icandy/internal/build"
	"icandy/internal/config"
	"icandy/internal/history"
	"icandy/internal/imagecheck"
	"icandy/internal/keysource"
	"icandy/internal/logging"
	"icandy/internal/preflight"
	"icandy/internal/unsplash"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var assetsPerKey int

	cmd := &cobra.Command{
		Use:   "build <text-file>",
		Short: "Fetch images for every key in a script and update the association store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if assetsPerKey > 0 {
				cfg.Build.AssetsPerKey = assetsPerKey
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runBuild(runCtx, cfg, args[0], logger)
			out := cmd.OutOrStdout()
			if summary.Total > 0 {
				printBuildSummary(out, summary, cfg.Paths.AssociationsFile)
			}
			if err != nil {
				if errors.Is(err, unsplash.ErrInterrupted) {
					fmt.Fprintln(out, "Build interrupted; completed keys were saved. Rerun to resume.")
				}
				return fmt.Errorf("build failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&assetsPerKey, "assets-per-key", 0, "Override build.assets_per_key for this run")
	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config, textPath string, logger *slog.Logger) (build.Summary, error) {
	accessKey, err := cfg.RequireAccessKey()
	if err != nil {
		return build.Summary{}, err
	}
	checks := []preflight.Result{
		preflight.CheckCreatableDirectory("Asset directory", cfg.Paths.AssetDir),
		preflight.CheckCreatableDirectory("Store directory", filepath.Dir(cfg.Paths.AssociationsFile)),
	}
	if failed := preflight.Failed(checks); len(failed) > 0 {
		return build.Summary{}, fmt.Errorf("preflight %s: %s", failed[0].Name, failed[0].Detail)
	}

	store, loaded, err := associations.Open(cfg.Paths.AssociationsFile)
	if err != nil {
		return build.Summary{}, fmt.Errorf("open association store: %w", err)
	}
	if loaded {
		logger.Info("loaded association store",
			logging.String("path", cfg.Paths.AssociationsFile),
			logging.Int("keys", store.KeyCount()),
			logging.Int("assets", store.AssetCount()))
	}

	client, err := unsplash.New(unsplash.Config{
		AccessKey:   accessKey,
		BaseURL:     cfg.Unsplash.BaseURL,
		HourlyLimit: cfg.Unsplash.HourlyLimit,
		MaxRetries:  cfg.Build.MaxRetries,
		Timeout:     time.Duration(cfg.Unsplash.RequestTimeout) * time.Second,
	}, unsplash.WithLogger(logging.NewComponentLogger(logger, "unsplash")))
	if err != nil {
		return build.Summary{}, err
	}

	opts := build.Options{
		AssetsPerKey: cfg.Build.AssetsPerKey,
		AssetDir:     cfg.Paths.AssetDir,
		StorePath:    cfg.Paths.AssociationsFile,
		Logger:       logging.NewComponentLogger(logger, "build"),
	}
	if cfg.Build.ValidateImages {
		opts.Validator = imagecheck.Validator{}
	}
	if cfg.Paths.HistoryDB != "" {
		hist, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.history_db"),
				logging.String(logging.FieldImpact, "this run will not appear in icandy history"))
		} else {
			defer hist.Close()
			opts.Recorder = hist
		}
	}

	orchestrator, err := build.New(client, store, opts)
	if err != nil {
		return build.Summary{}, err
	}
	source := keysource.TextFile{
		Path:          textPath,
		StopWordsPath: cfg.Paths.StopWordsFile,
		MinLength:     cfg.Build.MinKeyLength,
		Logger:        logging.NewComponentLogger(logger, "keysource"),
	}
	return orchestrator.Run(ctx, source)
}

func printBuildSummary(out io.Writer, summary build.Summary, storePath string) {
	storeSize := "-"
	if info, err := os.Stat(storePath); err == nil {
		storeSize = humanize.Bytes(uint64(info.Size()))
	}
	facts := [][2]string{
		{"Run", summary.RunID},
		{"Status", summary.Status},
		{"Keys", strconv.Itoa(summary.Total)},
		{"Processed", strconv.Itoa(summary.Processed)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Images downloaded", strconv.Itoa(summary.Assets)},
		{"Store keys", strconv.Itoa(summary.StoreKeys)},
		{"Store images", strconv.Itoa(summary.StoreAssets)},
		{"Store size", storeSize},
		{"Elapsed", summary.Duration().Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderFacts("Build", facts))

	if len(summary.Failures) == 0 {
		return
	}
	failRows := make([][]string, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		failRows = append(failRows, []string{f.Key, f.Reason})
	}
	fmt.Fprintln(out, "Failed keys:")
	fmt.Fprintln(out, renderTable([]string{"Key", "Reason"}, failRows, nil))
}
