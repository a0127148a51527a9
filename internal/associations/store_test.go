package associations_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"icandy/internal/associations"
)

func TestAddIgnoresBlankAssets(t *testing.T) {
	store := associations.New()
	store.Add("ocean", "", "  ", "\t")
	store.Add("ocean")
	store.Add("   ", "a.jpg")

	if store.KeyCount() != 0 {
		t.Fatalf("expected no keys, got %d", store.KeyCount())
	}
	if store.Has("ocean") {
		t.Fatal("blank assets must not create an entry")
	}
}

func TestAddIsCaseInsensitiveAndAppends(t *testing.T) {
	store := associations.New()
	store.Add("Hello", "a.jpg", "", "b.jpg")
	store.Add("  hello ", "b.jpg")

	got := store.Get("HELLO")
	want := []string{"a.jpg", "b.jpg", "b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Get returned %v, want %v", got, want)
	}
	if !store.Has("hello") {
		t.Fatal("expected Has to report the entry")
	}
	if store.KeyCount() != 1 || store.AssetCount() != 3 {
		t.Fatalf("unexpected counts keys=%d assets=%d", store.KeyCount(), store.AssetCount())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := associations.New()
	store.Add("sun", "a.jpg")
	got := store.Get("sun")
	got[0] = "mutated"
	if store.Get("sun")[0] != "a.jpg" {
		t.Fatal("Get must not expose internal slice")
	}
	if len(store.Get("absent")) != 0 {
		t.Fatal("expected empty result for absent key")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "associations.json")

	store := associations.New()
	store.Add("world", "w1.jpg", "w2.jpg")
	store.Add("hello", "h1.jpg")
	store.Add("hello", "h2.jpg")
	if err := store.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := associations.New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Keys(), store.Keys()) {
		t.Fatalf("key set mismatch: %v vs %v", loaded.Keys(), store.Keys())
	}
	for _, key := range store.Keys() {
		if !reflect.DeepEqual(loaded.Get(key), store.Get(key)) {
			t.Fatalf("assets for %q differ: %v vs %v", key, loaded.Get(key), store.Get(key))
		}
	}
	meta := loaded.Metadata()
	if meta.WordCount != 2 || meta.ImageCount != 4 || meta.Created.IsZero() {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestSaveWritesExpectedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "associations.json")
	store := associations.New()
	store.Add("cat", "c.jpg")
	if err := store.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc struct {
		Associations map[string][]string `json:"associations"`
		Metadata     map[string]any      `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(doc.Associations["cat"], []string{"c.jpg"}) {
		t.Fatalf("unexpected associations %v", doc.Associations)
	}
	for _, field := range []string{"created", "wordCount", "imageCount"} {
		if _, ok := doc.Metadata[field]; !ok {
			t.Fatalf("metadata missing %q: %v", field, doc.Metadata)
		}
	}
}

func TestSaveEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := associations.New().Save(path); err != nil {
		t.Fatalf("Save of empty store failed: %v", err)
	}
	loaded := associations.New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load of empty store failed: %v", err)
	}
	if loaded.KeyCount() != 0 {
		t.Fatalf("expected empty store, got %d keys", loaded.KeyCount())
	}
}

func TestSaveRejectsEmptyPath(t *testing.T) {
	if err := associations.New().Save(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"malformed":  `{"associations": `,
		"missing":    `{"metadata": {"wordCount": 0}}`,
		"not object": `{"associations": ["a"]}`,
		"null":       `{"associations": null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := associations.New().Load(path); err == nil {
				t.Fatalf("expected load error for %s", name)
			}
		})
	}

	if err := associations.New().Load(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSkipsInvalidEntriesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "associations.json")
	body := `{"associations": {
		"Good": ["a.jpg", 7, "", "b.jpg"],
		"scalar": "c.jpg",
		"object": {"x": "y"},
		"numbers": [1, 2],
		"empty": []
	}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := associations.New()
	store.Add("stale", "old.jpg")
	if err := store.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Has("stale") {
		t.Fatal("Load must replace previous contents")
	}
	if !reflect.DeepEqual(store.Keys(), []string{"good"}) {
		t.Fatalf("unexpected keys %v", store.Keys())
	}
	if !reflect.DeepEqual(store.Get("good"), []string{"a.jpg", "b.jpg"}) {
		t.Fatalf("unexpected assets %v", store.Get("good"))
	}
}

func TestVerifyAssetsReportsMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.jpg")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	missingA := filepath.Join(dir, "a.jpg")
	missingB := filepath.Join(dir, "b.jpg")

	store := associations.New()
	store.Add("first", present)
	if !store.VerifyAssets() {
		t.Fatal("expected verification to pass with every asset present")
	}

	store.Add("second", missingA, present)
	store.Add("third", missingB, missingA)

	if store.VerifyAssets() {
		t.Fatal("expected verification to fail")
	}
	want := []string{missingA, missingB, missingA}
	if got := store.MissingAssets(); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingAssets returned %v, want %v", got, want)
	}
}

func TestOpenMissingFileReturnsEmptyStore(t *testing.T) {
	store, loaded, err := associations.Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if loaded {
		t.Fatal("expected loaded=false for missing file")
	}
	if store.KeyCount() != 0 {
		t.Fatal("expected empty store")
	}
}

func TestOpenCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "associations.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := associations.Open(path); err == nil {
		t.Fatal("expected corrupt store to fail")
	}
}

func TestClearEmptiesStore(t *testing.T) {
	store := associations.New()
	store.Add("a", "1.jpg")
	store.Clear()
	if store.KeyCount() != 0 || store.Has("a") {
		t.Fatal("expected Clear to remove all entries")
	}
}

func TestLoadToleratesDamagedMetadata(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty created":   `{"created": ""}`,
		"numeric created": `{"created": 1714564800}`,
		"string":          `"x"`,
		"number":          `42`,
		"null":            `null`,
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			body := `{"associations": {"cat": ["a.jpg"]}, "metadata": ` + meta + `}`
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			store, loaded, err := associations.Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !loaded {
				t.Fatal("expected loaded=true")
			}
			if !reflect.DeepEqual(store.Get("cat"), []string{"a.jpg"}) {
				t.Fatalf("unexpected assets %v", store.Get("cat"))
			}
			if !store.Metadata().Created.IsZero() {
				t.Fatalf("expected zero metadata, got %+v", store.Metadata())
			}
		})
	}
}

func TestLoadWithoutMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "associations.json")
	if err := os.WriteFile(path, []byte(`{"associations": {"cat": ["a.jpg"]}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := associations.New()
	if err := store.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Metadata() != (associations.Metadata{}) {
		t.Fatalf("expected zero metadata, got %+v", store.Metadata())
	}
}
