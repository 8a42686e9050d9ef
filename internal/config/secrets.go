package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretFromEnv returns the value of the named environment variable, or,
// when NAME_FILE is set instead, the trimmed contents of the file it points
// at. Returns empty without error when neither is set.
func SecretFromEnv(name string) (string, error) {
	if val := os.Getenv(name); val != "" {
		return val, nil
	}

	filePath := os.Getenv(name + "_FILE")
	if filePath == "" {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("%s_FILE points at an unreadable file %s: %w", name, filePath, err)
	}

	return strings.TrimSpace(string(data)), nil
}
