package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}
	if !strings.Contains(configDir, "hpa4911") {
		t.Errorf("GetConfigDir() = %v, should contain 'hpa4911'", configDir)
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

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices is nil")
	}
	if reg.Preferences == nil {
		t.Error("NewRegistry().Preferences is nil")
	}
}

func TestAddDevice(t *testing.T) {
	tests := []struct {
		name    string
		mac     string
		wantKey string
		wantErr bool
	}{
		{
			name:    "normalizes case and separators",
			mac:     "a4-c1-38-01-02-03",
			wantKey: "A4:C1:38:01:02:03",
		},
		{
			name:    "already canonical",
			mac:     "A4:C1:38:01:02:04",
			wantKey: "A4:C1:38:01:02:04",
		},
		{
			name:    "rejects garbage",
			mac:     "not-a-mac",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.AddDevice(tt.mac, "living room", "192.168.1.40")
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddDevice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			d := reg.GetDevice(tt.wantKey)
			if d == nil {
				t.Fatalf("device not stored under %q; keys: %v", tt.wantKey, keys(reg))
			}
			if d.Nickname != "living room" || d.LastIP != "192.168.1.40" {
				t.Errorf("stored device = %+v", d)
			}
		})
	}
}

func TestRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	if err := reg.AddDevice("A4:C1:38:01:02:03", "", ""); err != nil {
		t.Fatal(err)
	}

	if err := reg.RemoveDevice("a4:c1:38:01:02:03"); err != nil {
		t.Errorf("RemoveDevice() error = %v", err)
	}
	if err := reg.RemoveDevice("A4:C1:38:01:02:03"); err == nil {
		t.Error("RemoveDevice() on absent device: expected error")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	if err := reg.AddDevice("A4:C1:38:01:02:03", "bedroom", "192.168.1.41"); err != nil {
		t.Fatal(err)
	}
	reg.Preferences.RefreshSeconds = 60

	if err := reg.saveTo(path); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	loaded, err := loadRegistryFile(path)
	if err != nil {
		t.Fatalf("loadRegistryFile() error = %v", err)
	}

	d := loaded.GetDevice("A4:C1:38:01:02:03")
	if d == nil {
		t.Fatal("device lost in round trip")
	}
	if d.Nickname != "bedroom" || d.LastIP != "192.168.1.41" {
		t.Errorf("loaded device = %+v", d)
	}
	if loaded.Preferences.RefreshSeconds != 60 {
		t.Errorf("refresh seconds = %d, want 60", loaded.Preferences.RefreshSeconds)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	reg, err := loadRegistryFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("loadRegistryFile() error = %v", err)
	}
	if len(reg.Devices) != 0 || reg.Version != 1 {
		t.Errorf("missing file should yield a fresh registry, got %+v", reg)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadRegistryFile(path); err == nil {
		t.Error("expected error for unsupported config version")
	}
}

func keys(r *Registry) []string {
	var out []string
	for k := range r.Devices {
		out = append(out, k)
	}
	return out
}
