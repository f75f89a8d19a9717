package env

import "os"

// Get reads key from the process environment, returning fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
