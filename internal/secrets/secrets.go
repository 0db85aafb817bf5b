// Package secrets resolves pipeline secrets from the process environment.
// A variable CONVEYOR_SECRET_INDEX_TOKEN becomes secrets.index_token in
// pipeline expressions. Values never appear in logs.
package secrets

import (
	"os"
	"strings"
)

// EnvPrefix marks environment variables that carry secrets.
const EnvPrefix = "CONVEYOR_SECRET_"

// Store is an immutable name-to-value secret mapping.
type Store map[string]string

// FromEnv builds a Store from the current process environment.
func FromEnv() Store {
	return fromEnviron(os.Environ())
}

func fromEnviron(environ []string) Store {
	store := Store{}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if key == "" {
			continue
		}
		store[key] = value
	}
	return store
}
