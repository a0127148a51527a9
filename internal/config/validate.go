package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUnsplash(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		return errors.New("paths.asset_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AssociationsFile) == "" {
		return errors.New("paths.associations_file must be set")
	}
	return nil
}

func (c *Config) validateUnsplash() error {
	parsed, err := url.Parse(c.Unsplash.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("unsplash.base_url %q must be an absolute URL", c.Unsplash.BaseURL)
	}
	if c.Unsplash.HourlyLimit <= 0 {
		return errors.New("unsplash.hourly_limit must be positive")
	}
	if c.Unsplash.RequestTimeout <= 0 {
		return errors.New("unsplash.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.AssetsPerKey <= 0 {
		return errors.New("build.assets_per_key must be positive")
	}
	if c.Build.AssetsPerKey > maxAssetsPerKey {
		return fmt.Errorf("build.assets_per_key must be at most %d (one Unsplash result page)", maxAssetsPerKey)
	}
	if c.Build.MaxRetries < 1 {
		return errors.New("build.max_retries must be at least 1 (it counts total attempts)")
	}
	if c.Build.MinKeyLength < 0 {
		return errors.New("build.min_key_length must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
