// Package history keeps a SQLite ledger of build runs so `icandy history` can
// show what each run processed, skipped and failed. The orchestrator uses the
// Store as its RunRecorder; recording failures never fail a build.
package history
