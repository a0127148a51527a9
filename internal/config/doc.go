// Package config loads, normalizes, and validates iCandy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the UNSPLASH_ACCESS_KEY
// environment fallback plus a properties-style credentials file. The Config
// type centralizes the asset directory, association store location, Unsplash
// limits and build settings so the CLI discovers them in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
