package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"icandy/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory. Image
// validation is off and logging is quiet unless an option says otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AssetDir = filepath.Join(base, "images")
	cfgVal.Paths.AssociationsFile = filepath.Join(base, "data", "associations.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "data", "history.db")
	cfgVal.Unsplash.AccessKey = "test-access-key"
	cfgVal.Unsplash.CredentialsFile = filepath.Join(base, "unsplash.properties")
	cfgVal.Build.ValidateImages = false
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAccessKey sets the Unsplash access key. An empty key leaves resolution
// to the credentials file.
func WithAccessKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Unsplash.AccessKey = key
	}
}

// WithBaseURL points the Unsplash client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Unsplash.BaseURL = url
	}
}

// WithAssetsPerKey overrides build.assets_per_key.
func WithAssetsPerKey(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.AssetsPerKey = n
	}
}

// WithStopWords writes words to a stop-words file and configures it.
func WithStopWords(words ...string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "stopwords.txt")
		var data []byte
		for _, w := range words {
			data = append(data, w...)
			data = append(data, '\n')
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			b.t.Fatalf("write stop words: %v", err)
		}
		b.cfg.Paths.StopWordsFile = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.AssetDir)
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
