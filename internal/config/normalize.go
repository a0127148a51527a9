package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeUnsplash(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.AssetDir, err = expandPath(strings.TrimSpace(c.Paths.AssetDir)); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Paths.AssociationsFile, err = expandPath(strings.TrimSpace(c.Paths.AssociationsFile)); err != nil {
		return fmt.Errorf("paths.associations_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.StopWordsFile, err = expandPath(strings.TrimSpace(c.Paths.StopWordsFile)); err != nil {
		return fmt.Errorf("paths.stop_words_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeUnsplash() error {
	c.Unsplash.AccessKey = strings.TrimSpace(c.Unsplash.AccessKey)
	if c.Unsplash.AccessKey == "" {
		if value, ok := os.LookupEnv(unsplashAccessKeyEnv); ok {
			c.Unsplash.AccessKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Unsplash.CredentialsFile) == "" {
		c.Unsplash.CredentialsFile = defaultCredentialsFile
	}
	var err error
	if c.Unsplash.CredentialsFile, err = expandPath(strings.TrimSpace(c.Unsplash.CredentialsFile)); err != nil {
		return fmt.Errorf("unsplash.credentials_file: %w", err)
	}
	c.Unsplash.BaseURL = strings.TrimRight(strings.TrimSpace(c.Unsplash.BaseURL), "/")
	if c.Unsplash.BaseURL == "" {
		c.Unsplash.BaseURL = defaultUnsplashBaseURL
	}
	if c.Unsplash.AccessKey == "" {
		// A credentials file is optional until a build actually needs the key.
		if key, err := readAccessKey(c.Unsplash.CredentialsFile); err == nil {
			c.Unsplash.AccessKey = key
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
