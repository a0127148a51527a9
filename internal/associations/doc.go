// Package associations owns the persisted key to local asset mapping that the
// build pipeline produces and the display engine reads.
//
// Keys are case-insensitive: every operation trims and lower-cases them first.
// A key exists only while it holds at least one asset, so adding blank
// references never creates an empty entry. The on-disk form is a JSON object
// with an "associations" map and a derived "metadata" block (created,
// wordCount, imageCount) that is recomputed on every save.
//
// Saves are whole-file rewrites performed through a temp file and rename, so a
// crash mid-save leaves the previous store intact.
package associations
