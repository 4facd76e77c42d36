package config

import (
	"os"
	"path/filepath"
)

const (
	appName            = "wew"
	configFileName     = "config.toml"
	schemaFileName     = "config.schema.json"
	cookieDatabaseName = "cookies.sqlite"
)

// XDGDirs holds the XDG Base Directory paths for wew.
type XDGDirs struct {
	ConfigHome string
	DataHome   string
	StateHome  string
	CacheHome  string
}

func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// GetXDGDirs resolves the wew directories:
// - $XDG_CONFIG_HOME/wew (default: ~/.config/wew)
// - $XDG_DATA_HOME/wew (default: ~/.local/share/wew)
// - $XDG_STATE_HOME/wew (default: ~/.local/state/wew)
// - $XDG_CACHE_HOME/wew (default: ~/.cache/wew)
func GetXDGDirs() (*XDGDirs, error) {
	var (
		dirs XDGDirs
		err  error
	)
	if dirs.ConfigHome, err = xdgDir("XDG_CONFIG_HOME", ".config"); err != nil {
		return nil, err
	}
	if dirs.DataHome, err = xdgDir("XDG_DATA_HOME", ".local", "share"); err != nil {
		return nil, err
	}
	if dirs.StateHome, err = xdgDir("XDG_STATE_HOME", ".local", "state"); err != nil {
		return nil, err
	}
	if dirs.CacheHome, err = xdgDir("XDG_CACHE_HOME", ".cache"); err != nil {
		return nil, err
	}
	return &dirs, nil
}

func GetConfigDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return dirs.ConfigHome, nil
}

// GetCacheDir returns the root of the engine cache directories.
func GetCacheDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return dirs.CacheHome, nil
}

// GetLogDir returns the log directory. Logs live in XDG_STATE_HOME.
func GetLogDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs.StateHome, "logs"), nil
}

// GetConfigFile returns the path to the main configuration file.
func GetConfigFile() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetCookieDatabaseFile returns the cookie snapshot database path. Exported
// cookies are user data and belong in XDG_DATA_HOME.
func GetCookieDatabaseFile() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs.DataHome, cookieDatabaseName), nil
}

// EnsureDirectories creates the XDG directories if they don't exist.
func EnsureDirectories() error {
	dirs, err := GetXDGDirs()
	if err != nil {
		return err
	}
	for _, dir := range []string{dirs.ConfigHome, dirs.DataHome, dirs.StateHome, dirs.CacheHome} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}
	return nil
}
