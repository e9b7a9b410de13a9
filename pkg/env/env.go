// Package env reads raw environment variables for the few knobs that are
// needed before the typed config has been loaded.
package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
// Blank values count as unset.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// First returns the first set variable among keys, or fallback when none is.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
