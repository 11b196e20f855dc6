package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoDatabaseURL means a Postgres staging operation was requested without
// a connection string anywhere in the configuration chain.
var ErrNoDatabaseURL = errors.New("no database URL configured")

// DefaultEnvFile is loaded before command execution when present.
const DefaultEnvFile = ".env"

// LoadEnvFile loads variables from an env file into the process environment.
// Existing variables win. The default file is optional; a file the user
// named explicitly must exist.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// DatabaseURL resolves the Postgres staging connection string: viper
// (config file or HINDSIGHT_STORAGE_DATABASE_URL) first, then DATABASE_URL
// from the environment, which an env file may have populated.
func DatabaseURL() (string, error) {
	if v := viper.GetString("storage.database_url"); v != "" {
		return v, nil
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: set DATABASE_URL, storage.database_url, or pass --database-url", ErrNoDatabaseURL)
}
