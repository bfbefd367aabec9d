package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.huddle/config.toml.
type Config struct {
	DefaultSession string    `toml:"default_session"`
	LogLevel       string    `toml:"log_level"`
	User           User      `toml:"user"`
	Presence       Presence  `toml:"presence"`
	Directory      Directory `toml:"directory"`
}

// User is the identity messages are sent as.
type User struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// Presence controls how other writers' presence changes are picked up.
type Presence struct {
	// PollInterval enables data_version polling when positive.
	PollInterval time.Duration `toml:"poll_interval"`
	// Watch enables fsnotify watching of the session database.
	Watch bool `toml:"watch"`
}

// Directory points at an optional users file.
type Directory struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultSession: "main",
		LogLevel:       "info",
		User: User{
			Name:  "Mohd Aasim",
			Email: "mfsi.aasim.m@gmail.com",
		},
		Presence: Presence{Watch: true},
	}
}

// Load reads config from the given path. Keys absent from the file keep
// their Default values. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Presence.PollInterval < 0 {
		return nil, fmt.Errorf("%s: presence.poll_interval must not be negative", path)
	}
	return cfg, nil
}

// LoadOrDefault reads config from path, falling back to Default when the
// file does not exist. Any other failure is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
