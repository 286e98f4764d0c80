package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "framehello") {
		t.Errorf("GetConfigDir() = %v, should contain 'framehello'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	case "linux":
		if configDir != filepath.Join("/tmp/xdg", "framehello") {
			t.Errorf("GetConfigDir() = %v, want XDG_CONFIG_HOME/framehello", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		configPath, err := GetConfigPath()
		if err != nil {
			t.Fatalf("GetConfigPath() error = %v", err)
		}
		if filepath.Base(configPath) != "config.yaml" {
			t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
		}
	})

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "custom.yaml")
		t.Setenv(ConfigPathEnvVar, want)
		got, err := GetConfigPath()
		if err != nil {
			t.Fatalf("GetConfigPath() error = %v", err)
		}
		if got != want {
			t.Errorf("GetConfigPath() = %v, want %v", got, want)
		}
	})
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.LastDevice != nil {
		t.Errorf("NewRegistry().LastDevice = %+v, want nil", reg.LastDevice)
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.ScanTimeout != 5*time.Second {
		t.Errorf("ScanTimeout = %v, want 5s", reg.Preferences.ScanTimeout)
	}
	if reg.Preferences.NamePrefix != "Frame" {
		t.Errorf("NamePrefix = %q, want Frame", reg.Preferences.NamePrefix)
	}
	if reg.Preferences.ReconnectLast {
		t.Error("ReconnectLast should be false by default")
	}
}

func TestRegistryLastDevice(t *testing.T) {
	reg := NewRegistry()

	if reg.ForgetDevice() {
		t.Error("ForgetDevice() on empty registry = true")
	}

	before := time.Now()
	reg.SetLastDevice("F3:8C:4A:22:01:9E", "Frame 9E")
	after := time.Now()

	d := reg.LastDevice
	if d == nil {
		t.Fatal("LastDevice should be set after SetLastDevice()")
	}
	if d.ID != "F3:8C:4A:22:01:9E" || d.Name != "Frame 9E" {
		t.Errorf("LastDevice = %+v", d)
	}
	if d.LastSeen.Before(before) || d.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", d.LastSeen, before, after)
	}

	if !reg.ForgetDevice() {
		t.Error("ForgetDevice() = false, want true")
	}
	if reg.LastDevice != nil {
		t.Error("LastDevice should be nil after ForgetDevice()")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.SetLastDevice("F3:8C:4A:22:01:9E", "Frame 9E")
	reg.Preferences.ReconnectLast = true
	reg.Preferences.Timings.Dwell = 1500 * time.Millisecond

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if !strings.Contains(string(data), "dwell: 1.5s") {
		t.Errorf("durations should be stored as strings, got:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if loaded.LastDevice == nil || loaded.LastDevice.ID != "F3:8C:4A:22:01:9E" {
		t.Errorf("LastDevice = %+v", loaded.LastDevice)
	}
	if !loaded.Preferences.ReconnectLast {
		t.Error("ReconnectLast not persisted")
	}
	if loaded.Preferences.Timings.Dwell != 1500*time.Millisecond {
		t.Errorf("Timings.Dwell = %v, want 1.5s", loaded.Preferences.Timings.Dwell)
	}
}

func TestLoadRegistryFrom(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, r *Registry)
	}{
		{
			name:    "partial preferences get defaults",
			content: "version: 1\npreferences:\n  scan_timeout: 8s\n",
			check: func(t *testing.T, r *Registry) {
				if r.Preferences.ScanTimeout != 8*time.Second {
					t.Errorf("ScanTimeout = %v, want 8s", r.Preferences.ScanTimeout)
				}
				if r.Preferences.MaxPayload != 244 {
					t.Errorf("MaxPayload = %d, want 244", r.Preferences.MaxPayload)
				}
				if r.Preferences.Timings == nil {
					t.Error("Timings should not be nil")
				}
			},
		},
		{
			name:    "no preferences",
			content: "version: 1\n",
			check: func(t *testing.T, r *Registry) {
				if r.Preferences == nil || r.Preferences.NamePrefix != "Frame" {
					t.Errorf("Preferences = %+v", r.Preferences)
				}
			},
		},
		{
			name:    "device without id is dropped",
			content: "version: 1\nlast_device:\n  name: Frame 01\n",
			check: func(t *testing.T, r *Registry) {
				if r.LastDevice != nil {
					t.Errorf("LastDevice = %+v, want nil", r.LastDevice)
				}
			},
		},
		{
			name:    "device without id is dropped alongside preferences",
			content: "version: 1\nlast_device:\n  name: Frame 01\npreferences:\n  reconnect_last: true\n",
			check: func(t *testing.T, r *Registry) {
				if r.LastDevice != nil {
					t.Errorf("LastDevice = %+v, want nil", r.LastDevice)
				}
				if !r.Preferences.ReconnectLast {
					t.Error("ReconnectLast lost")
				}
			},
		},
		{name: "wrong version", content: "version: 2\n", wantErr: true},
		{name: "malformed", content: "version: [1\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			reg, err := LoadRegistryFrom(path)
			if tt.wantErr {
				if err == nil {
					t.Error("LoadRegistryFrom() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadRegistryFrom() error = %v", err)
			}
			tt.check(t, reg)
		})
	}
}

func TestLoadRegistryFromMissingFile(t *testing.T) {
	reg, err := LoadRegistryFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Version != CurrentVersion || reg.Preferences == nil {
		t.Errorf("LoadRegistryFrom() = %+v, want defaults", reg)
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
