package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultSession = "work"
	cfg.Presence.PollInterval = 2 * time.Second
	cfg.Directory.Path = "/etc/huddle/users.toml"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.Presence.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", loaded.Presence.PollInterval)
	}
	if loaded.Directory.Path != "/etc/huddle/users.toml" {
		t.Errorf("Directory.Path = %q", loaded.Directory.Path)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "default_session = \"work\"\n\n[presence]\npoll_interval = \"500ms\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User.Name != "Mohd Aasim" || cfg.LogLevel != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if !cfg.Presence.Watch {
		t.Error("Watch default lost")
	}
	if cfg.Presence.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Presence.PollInterval)
	}
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[presence]\npoll_interval = \"-1s\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("negative poll_interval accepted")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultSession != "main" || cfg.User.Email != "mfsi.aasim.m@gmail.com" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("malformed file should not fall back silently")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
