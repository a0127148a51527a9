package textutil

import "regexp"

var wordPattern = regexp.MustCompile(`\w+`)

// Words returns the runs of word characters (letters, digits, underscore) in
// text, in order of appearance. Case is preserved.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}
