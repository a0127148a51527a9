package keysource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"icandy/internal/logging"
	"icandy/internal/textutil"
)

// DefaultMinLength is the shortest word kept as a key.
const DefaultMinLength = 3

// StopWords is a set of lower-cased words excluded from the key list.
type StopWords map[string]struct{}

// Contains reports whether word is in the set.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// LoadStopWords reads one word per line. Blank lines are ignored.
func LoadStopWords(path string) (StopWords, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stop words: %w", err)
	}
	defer file.Close()

	caser := cases.Lower(language.Und)
	words := make(StopWords)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := caser.String(strings.TrimSpace(scanner.Text()))
		if word != "" {
			words[word] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stop words: %w", err)
	}
	return words, nil
}

// Extract returns the distinct lower-cased content words of text in order of
// first appearance. Stop words and words shorter than minLength runes are
// dropped.
func Extract(text string, stop StopWords, minLength int) []string {
	caser := cases.Lower(language.Und)
	seen := make(map[string]struct{})
	var keys []string
	for _, word := range textutil.Words(text) {
		word = caser.String(word)
		if utf8.RuneCountInString(word) < minLength || stop.Contains(word) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keys = append(keys, word)
	}
	return keys
}

// Phrase is one non-blank line of a script with its content words.
type Phrase struct {
	Index int
	Text  string
	Words []string
}

// TextFile reads keys from a script on disk.
type TextFile struct {
	Path          string
	StopWordsPath string
	MinLength     int
	Logger        *slog.Logger
}

// Keys implements build.KeySource.
func (t TextFile) Keys(ctx context.Context) ([]string, error) {
	text, err := t.read()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := Extract(text, t.stopWords(), t.minLength())
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s contains no usable words", t.Path)
	}
	return keys, nil
}

// Phrases splits the script into trimmed non-blank lines, each with its own
// content words (not de-duplicated across lines).
func (t TextFile) Phrases() ([]Phrase, error) {
	text, err := t.read()
	if err != nil {
		return nil, err
	}
	stop := t.stopWords()
	minLength := t.minLength()
	var phrases []Phrase
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		phrases = append(phrases, Phrase{
			Index: len(phrases),
			Text:  line,
			Words: Extract(line, stop, minLength),
		})
	}
	return phrases, nil
}

func (t TextFile) read() (string, error) {
	if strings.TrimSpace(t.Path) == "" {
		return "", errors.New("text file path is empty")
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return "", fmt.Errorf("text file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("text file %s is not a regular file", t.Path)
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text file %s is empty", t.Path)
	}
	return text, nil
}

// stopWords loads the configured list. A missing or unreadable list is
// logged and treated as empty.
func (t TextFile) stopWords() StopWords {
	if strings.TrimSpace(t.StopWordsPath) == "" {
		return nil
	}
	words, err := LoadStopWords(t.StopWordsPath)
	if err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(t.Logger, "keysource"), "stop words unavailable", "stop_words_unreadable",
			logging.String("path", t.StopWordsPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.stop_words_file"),
			logging.String(logging.FieldImpact, "only the minimum length filter applies"))
		return nil
	}
	return words
}

func (t TextFile) minLength() int {
	if t.MinLength <= 0 {
		return DefaultMinLength
	}
	return t.MinLength
}
