// Package config turns viper settings into the typed configuration used by tariff.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/tariff/tariff.db"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded database.path setting.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}
