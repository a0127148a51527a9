// Package build runs the association build: it turns an ordered list of keys
// into downloaded images and records them in the association store.
//
// A run is strictly sequential. Keys that already hold the configured number
// of assets are skipped without any network call, which makes reruns
// incremental. The store is saved after every key that gains assets and once
// more at the end, so an interrupted run keeps all completed work.
//
// Per-key problems (no search results, every download failing, a rate limit
// that would not clear) are recorded in the Summary and the run continues.
// Credential rejection, interruption, an unusable key source, store write
// failures and a concurrent build on the same store abort the run.
package build
