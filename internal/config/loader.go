package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and saving.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	dir       string
	mu        sync.RWMutex
	callbacks []func(Change)
	watching  bool

	// saved is the file content last written by Save.
	saved []byte
	// created is set when Load wrote a default config file.
	created bool
}

// NewManager creates a manager for the XDG config directory.
func NewManager() (*Manager, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
	}
	return NewManagerWithDir(configDir)
}

// NewManagerWithDir creates a manager reading config.toml from dir.
func NewManagerWithDir(dir string) (*Manager, error) {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	// WEW_RUNTIME_LOOP, WEW_WEBVIEW_WIDTH, ...
	v.SetEnvPrefix("WEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", "WEW_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind WEW_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "WEW_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind WEW_LOG_FORMAT: %w", err)
	}
	if err := v.BindEnv("runtime.library_path", "WEW_LIBRARY_PATH"); err != nil {
		return nil, fmt.Errorf("failed to bind WEW_LIBRARY_PATH: %w", err)
	}

	return &Manager{viper: v, dir: dir}, nil
}

// Load reads the configuration file and environment. A missing file is
// created from the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}
	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		configFile := m.viper.ConfigFileUsed()
		if configFile == "" {
			configFile = m.ConfigFile()
		}
		return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid TOML) and permissions", configFile, err)
	}

	if err := m.createDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create default config at %s: %w\nTry creating the directory manually or check permissions", m.dir, err)
	}
	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read newly created config file: %w", err)
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			m.viper.ConfigFileUsed(),
			err,
		)
	}
	return config, nil
}

func normalizeConfig(config *Config) {
	config.Runtime.Loop = LoopKind(strings.ToLower(strings.TrimSpace(string(config.Runtime.Loop))))
	if config.Runtime.Loop == "" {
		config.Runtime.Loop = LoopMainThread
	}
	config.Runtime.Mode = RenderMode(strings.ToLower(strings.TrimSpace(string(config.Runtime.Mode))))
	if config.Runtime.Mode == "" {
		config.Runtime.Mode = RenderNative
	}
	config.Runtime.LogSeverity = strings.ToLower(strings.TrimSpace(config.Runtime.LogSeverity))
	if config.Runtime.LogSeverity == "" {
		config.Runtime.LogSeverity = "off"
	}
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	configCopy := *m.config
	return &configCopy
}

// Created reports whether Load wrote a default config file.
func (m *Manager) Created() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.created
}

// Save validates cfg, writes it to the config file and reports the change
// to OnConfigChange callbacks.
func (m *Manager) Save(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	next := *cfg
	normalizeConfig(&next)
	if err := validateConfig(&next); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	data, err := EncodeOrdered(&next)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if err := os.WriteFile(m.ConfigFile(), data, filePerm); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	change, callbacks, ok := m.applyLocked(&next, data)
	m.mu.Unlock()

	if ok {
		notify(callbacks, change)
	}
	return nil
}

// ConfigFile returns the path of the configuration file.
func (m *Manager) ConfigFile() string {
	if used := m.viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(m.dir, configFileName)
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string { return m.dir }

func (m *Manager) createDefaultConfig() error {
	if err := os.MkdirAll(m.dir, dirPerm); err != nil {
		return err
	}
	if err := WriteConfigOrdered(DefaultConfig(), filepath.Join(m.dir, configFileName)); err != nil {
		return err
	}
	if err := GenerateSchemaFile(m.dir); err != nil {
		return err
	}
	m.created = true
	return nil
}

func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.viper.SetDefault("runtime.loop", string(defaults.Runtime.Loop))
	m.viper.SetDefault("runtime.mode", string(defaults.Runtime.Mode))
	m.viper.SetDefault("runtime.library_path", defaults.Runtime.LibraryPath)
	m.viper.SetDefault("runtime.cache_path", defaults.Runtime.CachePath)
	m.viper.SetDefault("runtime.root_cache_path", defaults.Runtime.RootCachePath)
	m.viper.SetDefault("runtime.browser_subprocess_path", defaults.Runtime.BrowserSubprocessPath)
	m.viper.SetDefault("runtime.locale", defaults.Runtime.Locale)
	m.viper.SetDefault("runtime.user_agent", defaults.Runtime.UserAgent)
	m.viper.SetDefault("runtime.log_severity", defaults.Runtime.LogSeverity)
	m.viper.SetDefault("runtime.log_file", defaults.Runtime.LogFile)
	m.viper.SetDefault("runtime.background_color", defaults.Runtime.BackgroundColor)
	m.viper.SetDefault("runtime.persist_session_cookies", defaults.Runtime.PersistSessionCookies)

	m.viper.SetDefault("webview.width", defaults.WebView.Width)
	m.viper.SetDefault("webview.height", defaults.WebView.Height)
	m.viper.SetDefault("webview.frame_rate", defaults.WebView.FrameRate)
	m.viper.SetDefault("webview.device_scale_factor", defaults.WebView.DeviceScaleFactor)
	m.viper.SetDefault("webview.javascript", defaults.WebView.Javascript)
	m.viper.SetDefault("webview.webgl", defaults.WebView.WebGL)
	m.viper.SetDefault("webview.local_storage", defaults.WebView.LocalStorage)
	m.viper.SetDefault("webview.databases", defaults.WebView.Databases)
	m.viper.SetDefault("webview.devtools", defaults.WebView.DevTools)
	m.viper.SetDefault("webview.background_color", defaults.WebView.BackgroundColor)

	m.viper.SetDefault("scheme.name", defaults.Scheme.Name)
	m.viper.SetDefault("scheme.domain", defaults.Scheme.Domain)
	m.viper.SetDefault("scheme.root", defaults.Scheme.Root)

	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.file", defaults.Logging.File)
	m.viper.SetDefault("logging.dir", defaults.Logging.Dir)
	m.viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	m.viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	m.viper.SetDefault("logging.compress", defaults.Logging.Compress)

	m.viper.SetDefault("cookies.database", defaults.Cookies.Database)
}
