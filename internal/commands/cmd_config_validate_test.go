package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/config"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = dir

		got := validate(&cfg, filepath.Join(dir, "missing.yaml"))

		assert.True(t, got.Valid)
		assert.Empty(t, got.Errors)
		require.Len(t, got.Warnings, 1)
		assert.Equal(t, "Compile", got.Warnings[0].Category)
	})

	t.Run("field errors", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = dir
		cfg.Server.BaseURL = "ftp://bench"
		cfg.Cache.Documents = 0

		got := validate(&cfg, "")

		assert.False(t, got.Valid)
		var fields []string
		for _, e := range got.Errors {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "server.base_url")
		assert.Contains(t, fields, "cache.documents")
	})

	t.Run("config path is a directory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = dir
		sub := filepath.Join(dir, "conf.d")
		require.NoError(t, os.Mkdir(sub, 0o755))

		got := validate(&cfg, sub)

		assert.False(t, got.Valid)
		require.Len(t, got.Errors, 1)
		assert.Equal(t, "config_file", got.Errors[0].Field)
	})
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 error", plural(1, "error"))
	assert.Equal(t, "3 errors", plural(3, "error"))
}
