// Package capability models optional runtime capabilities as plain
// interfaces with a null-object fallback.
//
// The only capability today is beat detection. Probe runs once at startup and
// the chosen Beat is passed explicitly to whoever needs it; nothing is loaded
// dynamically and no package-level state is kept.
package capability
