package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrMissingCredentials reports that no Unsplash access key could be resolved.
var ErrMissingCredentials = errors.New("unsplash credentials missing")

// RequireAccessKey resolves the Unsplash access key, consulting the config
// value, the UNSPLASH_ACCESS_KEY environment variable and finally the
// credentials file. Failures carry a remediation hint.
func (c *Config) RequireAccessKey() (string, error) {
	if key := strings.TrimSpace(c.Unsplash.AccessKey); key != "" {
		return key, nil
	}
	key, err := readAccessKey(c.Unsplash.CredentialsFile)
	if err != nil {
		return "", err
	}
	c.Unsplash.AccessKey = key
	return key, nil
}

// readAccessKey parses a properties-style file (key=value or key: value,
// '#' and '!' comments) and returns its access_key entry.
func readAccessKey(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: set %s or configure unsplash.credentials_file", ErrMissingCredentials, unsplashAccessKeyEnv)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: credentials file missing, create it at %s with %s=YOUR_ACCESS_KEY (or set %s)",
				ErrMissingCredentials, path, credentialsAccessKeyPropKey, unsplashAccessKeyEnv)
		}
		return "", fmt.Errorf("open credentials file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexAny(line, "=:")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		if name != credentialsAccessKeyPropKey {
			continue
		}
		value := strings.TrimSpace(line[idx+1:])
		if value == "" || value == "YOUR_ACCESS_KEY" {
			break
		}
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read credentials file: %w", err)
	}
	return "", fmt.Errorf("%w: %s has no %s entry, add %s=YOUR_ACCESS_KEY",
		ErrMissingCredentials, path, credentialsAccessKeyPropKey, credentialsAccessKeyPropKey)
}
