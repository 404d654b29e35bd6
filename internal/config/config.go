package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	EnvAPIURL   = "VOXKEEP_API_URL"
	EnvDevice   = "VOXKEEP_DEVICE"
	EnvLanguage = "VOXKEEP_LANGUAGE"
	EnvLogLevel = "VOXKEEP_LOG_LEVEL"
	EnvLogFile  = "VOXKEEP_LOG_FILE"
	EnvTimeout  = "VOXKEEP_API_TIMEOUT"
)

// SystemConfigPath is consulted when no user config exists
const SystemConfigPath = "/etc/voxkeep/config.yaml"

// Config represents the application configuration
type Config struct {
	// Backend settings
	API struct {
		BaseURL        string `yaml:"base_url" validate:"required,url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=600"`
	} `yaml:"api"`

	// Audio settings
	Audio struct {
		Device      string `yaml:"device"`
		SampleRate  uint32 `yaml:"sample_rate" validate:"gte=8000,lte=192000"`
		ChunkFrames uint32 `yaml:"chunk_frames" validate:"gte=256,lte=16384"`
	} `yaml:"audio"`

	// Recording settings
	Recording struct {
		MaxSeconds       int     `yaml:"max_seconds" validate:"gte=1,lte=30"`
		SilenceThreshold float64 `yaml:"silence_threshold" validate:"gte=0,lte=1"`
	} `yaml:"recording"`

	// Default contribution metadata
	Contribution struct {
		Language       string `yaml:"language"`
		Dialect        string `yaml:"dialect"`
		TargetLanguage string `yaml:"target_language"`
	} `yaml:"contribution"`

	// Push-to-talk settings. Enabled switches the CLI from Enter on stdin
	// to the global hotkey.
	Input struct {
		Enabled bool   `yaml:"enabled"`
		Hotkey  string `yaml:"hotkey" validate:"required_if=Enabled true"`
	} `yaml:"input"`

	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	// Output settings
	Output struct {
		Format  string `yaml:"format" validate:"oneof=json text"`
		SaveDir string `yaml:"save_dir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = "http://localhost:8080"
	cfg.API.TimeoutSeconds = 60

	cfg.Audio.Device = ""
	cfg.Audio.SampleRate = 48000
	cfg.Audio.ChunkFrames = 4096

	cfg.Recording.MaxSeconds = 30
	cfg.Recording.SilenceThreshold = 0.01

	cfg.Contribution.TargetLanguage = "English"

	cfg.Input.Hotkey = "Ctrl+Shift+R"

	cfg.Log.Level = "info"

	cfg.Output.Format = "text"

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// UserConfigPath returns ~/.voxkeeprc, or "" if the home directory is unknown
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".voxkeeprc")
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.voxkeeprc > /etc/voxkeep/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	for _, path := range []string{UserConfigPath(), SystemConfigPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if cfg, err := Load(path); err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDevice); v != "" {
		c.Audio.Device = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Contribution.Language = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.API.TimeoutSeconds = n
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
