package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("HINDSIGHT_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty stays empty", in: "", want: ""},
		{name: "absolute untouched", in: "/var/lib/staging.db", want: "/var/lib/staging.db"},
		{name: "bare tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/loans.csv", want: filepath.Join(home, "loans.csv")},
		{name: "env var", in: "$HINDSIGHT_TEST_DIR/loans.csv", want: "/srv/data/loans.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("explicit file populates environment", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "staging.env")
		require.NoError(t, os.WriteFile(path, []byte("HINDSIGHT_ENV_PROBE=from-file\n"), 0o600))
		t.Setenv("HINDSIGHT_ENV_PROBE", "")
		require.NoError(t, os.Unsetenv("HINDSIGHT_ENV_PROBE"))

		require.NoError(t, LoadEnvFile(path))
		assert.Equal(t, "from-file", os.Getenv("HINDSIGHT_ENV_PROBE"))
	})

	t.Run("existing variables win", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "staging.env")
		require.NoError(t, os.WriteFile(path, []byte("HINDSIGHT_ENV_PROBE=from-file\n"), 0o600))
		t.Setenv("HINDSIGHT_ENV_PROBE", "from-process")

		require.NoError(t, LoadEnvFile(path))
		assert.Equal(t, "from-process", os.Getenv("HINDSIGHT_ENV_PROBE"))
	})

	t.Run("missing explicit file errors", func(t *testing.T) {
		err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
		require.Error(t, err)
	})

	t.Run("missing default file is fine", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		defer func() {
			require.NoError(t, os.Chdir(wd))
		}()

		require.NoError(t, LoadEnvFile(""))
	})
}

func TestDatabaseURL(t *testing.T) {
	t.Run("viper wins over environment", func(t *testing.T) {
		viper.Set("storage.database_url", "postgres://viper/db")
		defer viper.Reset()
		t.Setenv("DATABASE_URL", "postgres://env/db")

		url, err := DatabaseURL()
		require.NoError(t, err)
		assert.Equal(t, "postgres://viper/db", url)
	})

	t.Run("environment fallback", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DATABASE_URL", "postgres://env/db")

		url, err := DatabaseURL()
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", url)
	})

	t.Run("nothing configured", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DATABASE_URL", "")
		require.NoError(t, os.Unsetenv("DATABASE_URL"))

		_, err := DatabaseURL()
		require.ErrorIs(t, err, ErrNoDatabaseURL)
	})
}
