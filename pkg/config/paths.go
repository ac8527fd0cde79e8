package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ResolveDBPath returns the configured store path, or the default one under
// the per-user data directory.
func (c *Config) ResolveDBPath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, fmt.Sprintf("oewn-%s.db", c.Source.Release)), nil
}

// DataDir returns the per-user data directory: $XDG_DATA_HOME or
// ~/.local/share on Unix, ~/Library/Application Support on macOS and
// %LOCALAPPDATA% on Windows.
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return "", errors.New("config: %LOCALAPPDATA% is not set")
	case "darwin", "ios":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	if dir := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}
