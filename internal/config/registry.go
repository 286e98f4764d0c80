package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "framehello"
	configFile = "config.yaml"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "FRAMEHELLO_CONFIG"

var (
	loadOnce   sync.Once
	loaded     *Registry
	loadErr    error
	writeMutex sync.Mutex
)

// GetConfigDir returns the directory holding the config file:
//   - Linux: $XDG_CONFIG_HOME/framehello or $HOME/.config/framehello
//   - macOS: $HOME/.config/framehello
//   - Windows: %LOCALAPPDATA%\framehello
func GetConfigDir() (string, error) {
	base, err := configBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

func configBase() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "AppData", "Local"), nil
		}
		return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
	}

	// macOS uses ~/.config rather than ~/Library so the file is easy to find.
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" && runtime.GOOS != "darwin" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// GetConfigPath returns the config file path. FRAMEHELLO_CONFIG takes
// precedence over the platform location.
func GetConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadRegistry loads the registry from GetConfigPath once per process and
// returns the same instance on later calls.
func LoadRegistry() (*Registry, error) {
	loadOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			loadErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		loaded, loadErr = LoadRegistryFrom(path)
	})
	return loaded, loadErr
}

// LoadRegistryFrom reads a registry from path. A missing file yields the
// default registry.
func LoadRegistryFrom(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewRegistry(), nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	registry := &Registry{}
	if err := yaml.Unmarshal(data, registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if registry.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", registry.Version, CurrentVersion)
	}

	registry.normalize()
	return registry, nil
}

// SaveTo writes the registry to path, creating the directory if needed.
// The file is replaced by rename so a reader never sees half of it.
func (r *Registry) SaveTo(path string) error {
	writeMutex.Lock()
	defer writeMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, fileHeader, path)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

const fileHeader = `# framehello configuration
# last_device is written after every successful connection; run
# "framehello forget" to clear it.
#
# Location: %s

`
