package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "wsecho") {
		t.Errorf("GetConfigDir() = %v, should contain 'wsecho'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("DefaultPath() should end with 'config.yaml', got: %v", path)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != CurrentVersion {
		t.Errorf("Default().Version = %v, want %v", cfg.Version, CurrentVersion)
	}
	if got := cfg.Listen.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Default().Listen.Addr() = %v, want 127.0.0.1:8080", got)
	}
	if cfg.Codec != "gobwas" {
		t.Errorf("Default().Codec = %v, want gobwas", cfg.Codec)
	}
	if cfg.Timeouts.Handshake != 10*time.Second {
		t.Errorf("Default().Timeouts.Handshake = %v, want 10s", cfg.Timeouts.Handshake)
	}
	if cfg.Timeouts.Idle != 0 {
		t.Errorf("Default().Timeouts.Idle = %v, want 0", cfg.Timeouts.Idle)
	}
	if cfg.Advertise.Enabled {
		t.Error("Default().Advertise.Enabled should be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
version: 1
listen:
  port: 9001
timeouts:
  idle: 2m
codec: gorilla
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Listen.Host != "127.0.0.1" {
		t.Errorf("Listen.Host = %v, want default 127.0.0.1", cfg.Listen.Host)
	}
	if cfg.Listen.Port != 9001 {
		t.Errorf("Listen.Port = %v, want 9001", cfg.Listen.Port)
	}
	if cfg.Timeouts.Idle != 2*time.Minute {
		t.Errorf("Timeouts.Idle = %v, want 2m", cfg.Timeouts.Idle)
	}
	if cfg.Timeouts.Write != 10*time.Second {
		t.Errorf("Timeouts.Write = %v, want default 10s", cfg.Timeouts.Write)
	}
	if cfg.Codec != "gorilla" {
		t.Errorf("Codec = %v, want gorilla", cfg.Codec)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantVer bool
	}{
		{name: "unsupported version", data: "version: 2\n", wantVer: true},
		{name: "port out of range", data: "version: 1\nlisten:\n  port: 70000\n"},
		{name: "negative timeout", data: "version: 1\ntimeouts:\n  write: -1s\n"},
		{name: "negative message size", data: "version: 1\nmax_message_size: -5\n"},
		{name: "malformed yaml", data: "version: [1\n"},
		{name: "bad duration", data: "version: 1\ntimeouts:\n  idle: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if tt.wantVer && !errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("Parse() error = %v, want ErrUnsupportedVersion", err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Listen.Port = 9001
	cfg.Codec = "gorilla"
	cfg.Timeouts.Idle = 90 * time.Second
	cfg.MaxMessageSize = 1 << 20
	cfg.Advertise.Enabled = true
	cfg.Advertise.Instance = "lab-echo"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", *loaded, *cfg)
	}
}

func TestLoad_ExplicitMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() with missing explicit path should fail")
	}
}

func TestLoad_DefaultMissingReturnsDefaults(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only drives the default path on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", *cfg)
	}
}

func TestMarshal_Header(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "# wsecho server configuration") {
		t.Errorf("Marshal() should start with header comment, got: %q", text[:40])
	}
	if !strings.Contains(text, "handshake: 10s") {
		t.Errorf("Marshal() should encode durations as strings, got:\n%s", text)
	}
}
