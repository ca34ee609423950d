package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cnstln/chirp/internal/protocol"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "chirp") {
		t.Errorf("GetConfigDir() = %v, should contain 'chirp'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("NewConfig().Version = %v, want 1", cfg.Version)
	}
	if cfg.Group != "constellation" {
		t.Errorf("NewConfig().Group = %q, want %q", cfg.Group, "constellation")
	}
	if cfg.BroadcastAddr != "255.255.255.255" {
		t.Errorf("NewConfig().BroadcastAddr = %q, want 255.255.255.255", cfg.BroadcastAddr)
	}
	if cfg.AnyAddr != "0.0.0.0" {
		t.Errorf("NewConfig().AnyAddr = %q, want 0.0.0.0", cfg.AnyAddr)
	}
	if cfg.Status == nil || cfg.Status.Enabled {
		t.Error("NewConfig().Status should exist and be disabled by default")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := NewConfig()
	cfg.Group = "edda"
	cfg.Name = "gro"
	cfg.BroadcastAddr = "192.168.1.255"
	cfg.Services = []ServiceEntry{
		{Service: "control", Port: 41234},
		{Service: "data", Port: 5555},
	}
	cfg.Status = &StatusPrefs{Enabled: true, Addr: "127.0.0.1:9999"}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if loaded.Group != "edda" || loaded.Name != "gro" {
		t.Errorf("loaded identity = %q/%q, want edda/gro", loaded.Group, loaded.Name)
	}
	if loaded.BroadcastAddr != "192.168.1.255" {
		t.Errorf("loaded BroadcastAddr = %q, want 192.168.1.255", loaded.BroadcastAddr)
	}
	if len(loaded.Services) != 2 || loaded.Services[0].Port != 41234 {
		t.Errorf("loaded Services = %+v, want the two saved entries", loaded.Services)
	}
	if loaded.Status == nil || !loaded.Status.Enabled || loaded.Status.Addr != "127.0.0.1:9999" {
		t.Errorf("loaded Status = %+v, want enabled at 127.0.0.1:9999", loaded.Status)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if cfg.Group != "constellation" || cfg.BroadcastAddr != "255.255.255.255" {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects XDG_CONFIG_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "chirp", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("version: 99\ngroup: g\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Reload(); err == nil {
		t.Error("Reload() of version 99 config succeeded, want error")
	}
}

func TestLoadRejectsUnknownService(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects XDG_CONFIG_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "chirp", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	content := "version: 1\nservices:\n  - service: espresso\n    port: 1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Reload(); err == nil {
		t.Error("Reload() with unknown service name succeeded, want error")
	}
}

func TestParseService(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    protocol.ServiceIdentifier
		wantErr bool
	}{
		{"control", "control", protocol.ServiceControl, false},
		{"case insensitive", "DATA", protocol.ServiceData, false},
		{"heartbeat", "heartbeat", protocol.ServiceHeartbeat, false},
		{"monitoring", "monitoring", protocol.ServiceMonitoring, false},
		{"unknown", "espresso", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseService(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseService(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseService(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
