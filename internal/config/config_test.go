package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "regex", cfg.Scan.Extractor)
	assert.Equal(t, int64(1<<20), cfg.Scan.MaxFileSizeBytes)
	assert.Contains(t, cfg.Scan.Ignore, "**/node_modules/**")
	assert.Equal(t, "localhost:8080", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Clone.Depth)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfig_IgnoreIsCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Ignore[0] = "changed"

	assert.Equal(t, "**/node_modules/**", DefaultIgnore[0])
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Scan.MaxFiles, cfg.Scan.MaxFiles)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoad_RepoFileOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"version": 1,
		"scan": {"maxFiles": 10, "extractor": "treesitter"},
		"llm": {"model": "gemini-2.0-flash"}
	}`), 0644))

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Scan.MaxFiles)
	assert.Equal(t, "treesitter", cfg.Scan.Extractor)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	// untouched keys keep defaults
	assert.Equal(t, DefaultConfig().Scan.MaxFileSizeBytes, cfg.Scan.MaxFileSizeBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REPOVIZ_SERVER_ADDR", "0.0.0.0:9999")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSave_RoundTripOmitsAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Scan.MaxFiles = 77
	cfg.LLM.APIKey = "secret"
	require.NoError(t, cfg.Save(root))

	data, err := os.ReadFile(filepath.Join(root, DirName, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, 77, loaded.Scan.MaxFiles)
	assert.Equal(t, "secret", cfg.LLM.APIKey, "Save must not mutate the receiver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"zero max size", func(c *Config) { c.Scan.MaxFileSizeBytes = 0 }, "scan.maxFileSizeBytes"},
		{"zero max files", func(c *Config) { c.Scan.MaxFiles = 0 }, "scan.maxFiles"},
		{"negative workers", func(c *Config) { c.Scan.Workers = -1 }, "scan.workers"},
		{"unknown extractor", func(c *Config) { c.Scan.Extractor = "ast" }, "scan.extractor"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "server.maxUploadBytes"},
		{"hot temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"zero prompt budget", func(c *Config) { c.LLM.MaxPromptChars = 0 }, "llm.maxPromptChars"},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, "cache.size"},
		{"negative depth", func(c *Config) { c.Clone.Depth = -1 }, "clone.depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
