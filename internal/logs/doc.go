// Package logs reads the icandy.log file written during builds.
//
// Tail returns the last N lines with bounded memory and the byte offset where
// reading stopped. Follow continues from that offset and emits lines as they
// are appended until the context ends, which backs `icandy logs --follow`.
package logs
