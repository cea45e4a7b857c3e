package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "mcpbridge"

// GetConfigDir returns $XDG_CONFIG_HOME/mcpbridge, falling back to
// ~/.config/mcpbridge on every platform.
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(GetHomeDir(), ".config", appName)
}

// GetDefaultDataDir returns where the debug log lives when no data
// directory is configured.
func GetDefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName)
		}
		return filepath.Join(GetHomeDir(), "AppData", "Local", appName)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appName)
}

// GetConfigFilePath returns the path to config.toml.
func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return string(filepath.Separator)
}

// ExpandPath resolves a leading ~ and $VARS.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only access.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions creates dataDir or tightens it to 0700. The
// debug log can contain prompts and tool arguments.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if os.IsNotExist(err) {
		return EnsureDir(dataDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "ensure data dir", Path: dataDir, Err: os.ErrExist}
	}
	if info.Mode().Perm() != 0o700 {
		return os.Chmod(dataDir, 0o700)
	}
	return nil
}
