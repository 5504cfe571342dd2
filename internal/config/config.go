package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Chat    ChatConfig
	Storage StorageConfig
	Speech  SpeechConfig
	Log     LogConfig
}

// ServerConfig holds the assistant backend configuration
type ServerConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// ChatConfig holds chat behaviour settings
type ChatConfig struct {
	// StreamTimeoutSeconds is the hard ceiling on total stream duration,
	// measured from call start.
	StreamTimeoutSeconds int `mapstructure:"stream_timeout_seconds"`
}

// StorageConfig holds local persistence settings
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// SpeechConfig holds the text-to-speech command. An empty command disables
// the capability.
type SpeechConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultDataDir returns the per-user data directory for tokens, logs and the
// session database. Prefer XDG data dir (Linux/macOS); fall back to
// ~/.local/share, then the temp dir.
func DefaultDataDir() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "carelink")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", "carelink")
	}
	return filepath.Join(os.TempDir(), "carelink")
}

// Load loads the configuration from config.yaml. The CONFIG_PATH environment
// variable overrides the search path. A missing file is not an error; the
// defaults below apply.
func Load() (*Config, error) {
	v := viper.New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("chat.stream_timeout_seconds", 120)
	v.SetDefault("storage.path", filepath.Join(DefaultDataDir(), "sessions.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(DefaultDataDir(), "carelink.log"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
