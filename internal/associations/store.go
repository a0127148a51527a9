package associations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"icandy/internal/fileutil"
)

// Metadata is derived from the store contents each time it is saved.
type Metadata struct {
	Created    time.Time `json:"created"`
	WordCount  int       `json:"wordCount"`
	ImageCount int       `json:"imageCount"`
}

// Store maps normalized keys to ordered lists of local asset paths.
// Keys keep their insertion order so verification reports are stable.
type Store struct {
	mu       sync.RWMutex
	entries  map[string][]string
	order    []string
	metadata Metadata
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string][]string),
		now:     time.Now,
	}
}

// Open loads the store at path when the file exists and returns an empty
// store otherwise. The bool reports whether a file was loaded.
func Open(path string) (*Store, bool, error) {
	s := New()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, false, nil
		}
		return nil, false, fmt.Errorf("stat association store: %w", err)
	}
	if err := s.Load(path); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// NormalizeKey trims and lower-cases a key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Add appends the non-blank assets to key's list. Calls with an empty key or
// no usable asset leave the store unchanged.
func (s *Store) Add(key string, assets ...string) {
	key = NormalizeKey(key)
	if key == "" || len(assets) == 0 {
		return
	}
	valid := make([]string, 0, len(assets))
	for _, asset := range assets {
		if strings.TrimSpace(asset) == "" {
			continue
		}
		valid = append(valid, asset)
	}
	if len(valid) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(key, valid)
}

func (s *Store) appendLocked(key string, assets []string) {
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = append(s.entries[key], assets...)
}

// Get returns a copy of the assets stored for key.
func (s *Store) Get(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := s.entries[NormalizeKey(key)]
	out := make([]string, len(assets))
	copy(out, assets)
	return out
}

// Has reports whether key holds at least one asset.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[NormalizeKey(key)]) > 0
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	sort.Strings(keys)
	return keys
}

// KeyCount returns the number of keys with at least one asset.
func (s *Store) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AssetCount returns the total number of asset references across all keys.
func (s *Store) AssetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assetCountLocked()
}

func (s *Store) assetCountLocked() int {
	total := 0
	for _, assets := range s.entries {
		total += len(assets)
	}
	return total
}

// Metadata returns the metadata of the last load or save.
func (s *Store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]string)
	s.order = nil
}

// VerifyAssets reports whether every referenced asset exists on disk.
func (s *Store) VerifyAssets() bool {
	return len(s.MissingAssets()) == 0
}

// MissingAssets lists asset paths that do not exist on disk, in key
// insertion order. Paths shared by several keys are listed once per key.
func (s *Store) MissingAssets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []string
	for _, key := range s.order {
		for _, asset := range s.entries[key] {
			if !fileutil.Exists(asset) {
				missing = append(missing, asset)
			}
		}
	}
	return missing
}

type document struct {
	Associations json.RawMessage `json:"associations"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Save writes the store and freshly computed metadata to path. The file is
// replaced atomically.
func (s *Store) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("association store path is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assoc, err := s.encodeEntriesLocked()
	if err != nil {
		return err
	}
	meta := Metadata{
		Created:    s.now().UTC(),
		WordCount:  len(s.entries),
		ImageCount: s.assetCountLocked(),
	}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode association metadata: %w", err)
	}
	payload, err := json.MarshalIndent(document{Associations: assoc, Metadata: metaRaw}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode association store: %w", err)
	}
	payload = append(payload, '\n')
	if err := fileutil.WriteFileAtomic(path, payload, 0o644); err != nil {
		return fmt.Errorf("write association store: %w", err)
	}
	s.metadata = meta
	return nil
}

// encodeEntriesLocked renders the associations object in key insertion order.
func (s *Store) encodeEntriesLocked() (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}
		assets, err := json.Marshal(s.entries[key])
		if err != nil {
			return nil, fmt.Errorf("encode assets for %q: %w", key, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(assets)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Load replaces the in-memory store with the contents of path. Entries whose
// value is not a list are skipped, as are non-string list items.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read association store: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse association store %s: %w", path, err)
	}
	raw := bytes.TrimSpace(doc.Associations)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("parse association store %s: missing associations field", path)
	}
	if raw[0] != '{' {
		return fmt.Errorf("parse association store %s: associations must be an object", path)
	}

	entries := make(map[string][]string)
	var order []string
	if err := decodeOrdered(raw, func(key string, value json.RawMessage) {
		key = NormalizeKey(key)
		if key == "" {
			return
		}
		assets := stringItems(value)
		if len(assets) == 0 {
			return
		}
		if _, ok := entries[key]; !ok {
			order = append(order, key)
		}
		entries[key] = append(entries[key], assets...)
	}); err != nil {
		return fmt.Errorf("parse association store %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.order = order
	s.metadata = decodeMetadata(doc.Metadata)
	return nil
}

// decodeMetadata reads the metadata block when it is well formed. Metadata is
// recomputed on save, so a damaged block yields zero values instead of an
// error.
func decodeMetadata(raw json.RawMessage) Metadata {
	var meta Metadata
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}
	}
	return meta
}

// decodeOrdered walks a JSON object and calls fn for each member in document
// order.
func decodeOrdered(raw json.RawMessage, fn func(string, json.RawMessage)) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fn(key, value)
	}
	_, err := dec.Token()
	return err
}

func stringItems(value json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(value, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok || strings.TrimSpace(str) == "" {
			continue
		}
		out = append(out, str)
	}
	return out
}
