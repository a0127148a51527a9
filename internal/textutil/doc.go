// Package textutil holds the small string helpers shared by the key source
// and the build pipeline: word extraction from scripts and the file-name token
// derived from a key.
package textutil
