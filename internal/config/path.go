// Package config resolves file paths, environment files and the settings
// blocks that do not belong to a single subcommand.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and any $VAR references in a file path.
// Unresolvable pieces are left as-is rather than failing; path validity is
// the caller's problem.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	} else if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// DefaultStagingPath returns the SQLite staging database location used when
// no flag or config value overrides it.
func DefaultStagingPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hindsight.db"
	}
	return filepath.Join(home, ".local", "share", "hindsight", "staging.db")
}
