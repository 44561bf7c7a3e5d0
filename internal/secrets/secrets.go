package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Get resolves a secret. KEY_FILE (the Docker secrets pattern) wins over
// KEY; defaultValue is returned when neither is set.
func Get(envKey string, defaultValue string) (string, error) {
	if path := os.Getenv(envKey + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}

	return defaultValue, nil
}

// Optional resolves a secret and falls back to defaultValue on any error
func Optional(envKey string, defaultValue string) string {
	value, err := Get(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}
