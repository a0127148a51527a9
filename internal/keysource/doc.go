// Package keysource turns a script into the ordered key list consumed by the
// build pipeline. Words are lower-cased, de-duplicated in order of first
// appearance and filtered against a stop-word list and a minimum length.
package keysource
