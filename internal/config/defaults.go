package config

const (
	defaultConfigPath           = "~/.config/icandy/config.toml"
	defaultAssetDir             = "~/.local/share/icandy/images"
	defaultAssociationsFile     = "~/.local/share/icandy/associations.json"
	defaultLogDir               = "~/.local/share/icandy/logs"
	defaultHistoryDB            = "~/.local/share/icandy/history.db"
	defaultCredentialsFile      = "~/.config/icandy/unsplash.properties"
	defaultUnsplashBaseURL      = "https://api.unsplash.com"
	defaultUnsplashHourlyLimit  = 50
	defaultUnsplashTimeout      = 30
	defaultAssetsPerKey         = 5
	defaultMaxRetries           = 3
	defaultMinKeyLength         = 3
	maxAssetsPerKey             = 30 // unsplash search page size limit
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	unsplashAccessKeyEnv        = "UNSPLASH_ACCESS_KEY"
	credentialsAccessKeyPropKey = "access_key"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetDir:         defaultAssetDir,
			AssociationsFile: defaultAssociationsFile,
			LogDir:           defaultLogDir,
			HistoryDB:        defaultHistoryDB,
		},
		Unsplash: Unsplash{
			CredentialsFile: defaultCredentialsFile,
			BaseURL:         defaultUnsplashBaseURL,
			HourlyLimit:     defaultUnsplashHourlyLimit,
			RequestTimeout:  defaultUnsplashTimeout,
		},
		Build: Build{
			AssetsPerKey:   defaultAssetsPerKey,
			MaxRetries:     defaultMaxRetries,
			MinKeyLength:   defaultMinKeyLength,
			ValidateImages: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
