package preflight

import (
	"path/filepath"
	"strings"

	"icandy/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the readiness checks a build depends on. Optional inputs
// (the stop-words file) are only checked when configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCredentials(cfg),
		CheckCreatableDirectory("Asset directory", cfg.Paths.AssetDir),
		CheckCreatableDirectory("Store directory", filepath.Dir(cfg.Paths.AssociationsFile)),
		CheckStoreFile(cfg.Paths.AssociationsFile),
	}
	if strings.TrimSpace(cfg.Paths.StopWordsFile) != "" {
		results = append(results, CheckReadableFile("Stop words", cfg.Paths.StopWordsFile))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
