package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.Recording.MaxSeconds)
	assert.Equal(t, uint32(4096), cfg.Audio.ChunkFrames)
	assert.Equal(t, "English", cfg.Contribution.TargetLanguage)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
api:
  base_url: https://preserve.example.org
recording:
  max_seconds: 12
contribution:
  language: Basque
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://preserve.example.org", cfg.API.BaseURL)
	assert.Equal(t, 12, cfg.Recording.MaxSeconds)
	assert.Equal(t, "Basque", cfg.Contribution.Language)
	assert.Equal(t, 60, cfg.API.TimeoutSeconds, "untouched keys keep defaults")
	assert.Equal(t, uint32(48000), cfg.Audio.SampleRate)
}

func TestLoadEnablesHotkey(t *testing.T) {
	assert.False(t, DefaultConfig().Input.Enabled, "stdin toggle unless asked")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  enabled: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Input.Enabled)
	assert.Equal(t, "Ctrl+Shift+R", cfg.Input.Hotkey)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadWithFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg, "no file: defaults")

	user := DefaultConfig()
	user.Contribution.Language = "Maori"
	require.NoError(t, user.Save(filepath.Join(home, ".voxkeeprc")))

	cfg, err = LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, "Maori", cfg.Contribution.Language)

	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("contribution:\n  language: Sami\n"), 0644))
	cfg, err = LoadWithFallback(explicit)
	require.NoError(t, err)
	assert.Equal(t, "Sami", cfg.Contribution.Language)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	cfg := DefaultConfig()
	cfg.Audio.Device = "USB Mic"
	cfg.Output.Format = "json"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://api.example.org")
	t.Setenv(EnvDevice, "hw:1")
	t.Setenv(EnvLanguage, "Cherokee")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvTimeout, "15")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "https://api.example.org", cfg.API.BaseURL)
	assert.Equal(t, "hw:1", cfg.Audio.Device)
	assert.Equal(t, "Cherokee", cfg.Contribution.Language)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15, cfg.API.TimeoutSeconds)
}

func TestApplyEnvRejectsBadTimeout(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	assert.ErrorContains(t, DefaultConfig().ApplyEnv(), EnvTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ceiling above 30", func(c *Config) { c.Recording.MaxSeconds = 45 }, "MaxSeconds"},
		{"ceiling zero", func(c *Config) { c.Recording.MaxSeconds = 0 }, "MaxSeconds"},
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, "BaseURL"},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "Format"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
		{"tiny sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, "SampleRate"},
		{"hotkey enabled without binding", func(c *Config) { c.Input.Enabled = true; c.Input.Hotkey = "" }, "Hotkey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}
