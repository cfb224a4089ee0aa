package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "charta.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "docintel", config.OCR.Backend)
	assert.Equal(t, 500, config.Retrieval.ChunkSize)
	assert.Equal(t, 100, config.Retrieval.ChunkOverlap)
	assert.Equal(t, 3, config.Retrieval.TopK)
	assert.False(t, config.Processing.Enabled)

	require.NoError(t, config.Validate())
}

func TestLoadFromFilesMergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090

[ocr]
backend = "tesseract"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "tesseract", config.OCR.Backend)
	// untouched keys keep their defaults
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	first := writeConfigFile(t, `
[server]
port = 9090
`)
	second := writeConfigFile(t, `
[server]
port = 9191
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 9191, config.Server.Port)
}

func TestLoadFromFilesSkipsMissingFile(t *testing.T) {
	config, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8085, config.Server.Port)
}

func TestLoadFromFilesParseError(t *testing.T) {
	path := writeConfigFile(t, `[server`)

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090
`)
	t.Setenv("CHARTA_SERVER_PORT", "9292")
	t.Setenv("CHARTA_OCR_BACKEND", "VISION")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9292, config.Server.Port)
	assert.Equal(t, "vision", config.OCR.Backend)
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("CHARTA_SERVER_PORT", "9292")
	t.Setenv("CHARTA_LOG_LEVEL", "debug")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	config.ApplyFlagOverrides(FlagOverrides{Port: 9393, LogLevel: "WARN"})

	assert.Equal(t, 9393, config.Server.Port)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestFlagOverridesZeroValuesIgnored(t *testing.T) {
	config := NewDefaultConfig()
	config.ApplyFlagOverrides(FlagOverrides{})

	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "docintel", config.OCR.Backend)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown ocr backend", func(c *Config) { c.OCR.Backend = "abbyy" }},
		{"overlap not below chunk size", func(c *Config) {
			c.Retrieval.ChunkSize = 100
			c.Retrieval.ChunkOverlap = 100
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("CHARTA_TEST_KEY", "from-env")

	v, err := ResolveAPIKey(context.Background(), nil, "charta_test_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	v, err = ResolveAPIKey(context.Background(), nil, "charta_unset_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", v)
}
