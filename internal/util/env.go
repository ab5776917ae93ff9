package util

import (
	"log/slog"
	"os"
	"strings"
)

// EnvOrDefault returns the trimmed value of the environment variable, or the
// default when unset or blank.
func EnvOrDefault(key, defaultValue string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	return val
}

// ParseBoolEnv reads a boolean environment variable. Recognizes
// true/1/yes/on and false/0/no/off regardless of case; anything else falls
// back to the default with a warning.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized value, using default", "key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
