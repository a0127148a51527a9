// Package main hosts the iCandy CLI entrypoint and command graph.
//
// The Cobra command tree builds the keyword to image association store from a
// script, previews the keys a script yields, inspects and clears the store,
// lists recorded build runs, and reports readiness. Configuration resolution
// and logger setup live in the shared command context so subcommands only
// wire internal packages together.
package main
