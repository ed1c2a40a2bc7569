package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultPath is where the API key is read from unless overridden.
const DefaultPath = "/etc/diggeo.conf"

const apiKeyName = "api_key"

var (
	ErrUnreadable  = errors.New("failed to read config")
	ErrKeyNotFound = errors.New("api_key not found in config file")
)

// Config holds the values read from the configuration file.
type Config struct {
	APIKey Secret
}

// Load reads the file at path and extracts the API key.
//
// The file holds `key = value` lines. Everything after a `#` is a comment.
// The first non-empty api_key entry wins.
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrUnreadable, path, err)
	}

	key, ok := parse(string(content))
	if !ok {
		return Config{}, ErrKeyNotFound
	}

	return Config{APIKey: NewSecret(key)}, nil
}

func parse(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		line, _, _ = strings.Cut(line, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == apiKeyName && value != "" {
			return value, true
		}
	}

	return "", false
}
