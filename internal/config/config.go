// Package config loads the wew host configuration with Viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Config is the complete host configuration.
type Config struct {
	Runtime RuntimeConfig `mapstructure:"runtime" toml:"runtime" json:"runtime"`
	WebView WebViewConfig `mapstructure:"webview" toml:"webview" json:"webview"`
	Scheme  SchemeConfig  `mapstructure:"scheme" toml:"scheme" json:"scheme"`
	Logging LoggingConfig `mapstructure:"logging" toml:"logging" json:"logging"`
	Cookies CookiesConfig `mapstructure:"cookies" toml:"cookies" json:"cookies"`
}

// LoopKind selects the message loop strategy.
type LoopKind string

const (
	LoopMainThread  LoopKind = "main"
	LoopMultiThread LoopKind = "multi"
	LoopPump        LoopKind = "pump"
)

// RenderMode selects native windows or windowless rendering.
type RenderMode string

const (
	RenderNative     RenderMode = "native"
	RenderWindowless RenderMode = "windowless"
)

// RuntimeConfig maps onto the engine runtime settings.
type RuntimeConfig struct {
	Loop                  LoopKind   `mapstructure:"loop" toml:"loop" json:"loop" jsonschema:"enum=main,enum=multi,enum=pump,default=main"`
	Mode                  RenderMode `mapstructure:"mode" toml:"mode" json:"mode" jsonschema:"enum=native,enum=windowless,default=native"`
	LibraryPath           string     `mapstructure:"library_path" toml:"library_path" json:"library_path,omitempty" jsonschema:"description=Directory or file libwew is loaded from"`
	CachePath             string     `mapstructure:"cache_path" toml:"cache_path" json:"cache_path"`
	RootCachePath         string     `mapstructure:"root_cache_path" toml:"root_cache_path" json:"root_cache_path"`
	BrowserSubprocessPath string     `mapstructure:"browser_subprocess_path" toml:"browser_subprocess_path" json:"browser_subprocess_path,omitempty"`
	Locale                string     `mapstructure:"locale" toml:"locale" json:"locale,omitempty"`
	UserAgent             string     `mapstructure:"user_agent" toml:"user_agent" json:"user_agent,omitempty"`
	LogSeverity           string     `mapstructure:"log_severity" toml:"log_severity" json:"log_severity" jsonschema:"enum=off,enum=info,enum=error,enum=warn,enum=debug,enum=trace"`
	LogFile               string     `mapstructure:"log_file" toml:"log_file" json:"log_file,omitempty"`
	BackgroundColor       string     `mapstructure:"background_color" toml:"background_color" json:"background_color" jsonschema:"pattern=^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$"`
	PersistSessionCookies bool       `mapstructure:"persist_session_cookies" toml:"persist_session_cookies" json:"persist_session_cookies"`
}

// WebViewConfig holds per-webview defaults.
type WebViewConfig struct {
	Width             uint32  `mapstructure:"width" toml:"width" json:"width" jsonschema:"minimum=1"`
	Height            uint32  `mapstructure:"height" toml:"height" json:"height" jsonschema:"minimum=1"`
	FrameRate         uint32  `mapstructure:"frame_rate" toml:"frame_rate" json:"frame_rate" jsonschema:"minimum=1,maximum=60"`
	DeviceScaleFactor float32 `mapstructure:"device_scale_factor" toml:"device_scale_factor" json:"device_scale_factor"`
	Javascript        bool    `mapstructure:"javascript" toml:"javascript" json:"javascript"`
	WebGL             bool    `mapstructure:"webgl" toml:"webgl" json:"webgl"`
	LocalStorage      bool    `mapstructure:"local_storage" toml:"local_storage" json:"local_storage"`
	Databases         bool    `mapstructure:"databases" toml:"databases" json:"databases"`
	DevTools          bool    `mapstructure:"devtools" toml:"devtools" json:"devtools"`
	BackgroundColor   string  `mapstructure:"background_color" toml:"background_color" json:"background_color"`
}

// SchemeConfig registers a custom scheme serving files from Root. An empty
// Root disables the scheme.
type SchemeConfig struct {
	Name   string `mapstructure:"name" toml:"name" json:"name"`
	Domain string `mapstructure:"domain" toml:"domain" json:"domain"`
	Root   string `mapstructure:"root" toml:"root" json:"root,omitempty"`
}

// Enabled reports whether a scheme should be registered.
func (s SchemeConfig) Enabled() bool { return s.Root != "" }

// LoggingConfig holds host logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" toml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=off"`
	Format     string `mapstructure:"format" toml:"format" json:"format" jsonschema:"enum=console,enum=json"`
	File       bool   `mapstructure:"file" toml:"file" json:"file"`
	Dir        string `mapstructure:"dir" toml:"dir" json:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" json:"max_backups"`
	Compress   bool   `mapstructure:"compress" toml:"compress" json:"compress"`
}

// CookiesConfig locates the cookie snapshot database.
type CookiesConfig struct {
	Database string `mapstructure:"database" toml:"database" json:"database"`
}

// ParseColor parses #RRGGBB or #AARRGGBB into ARGB. Six digits are opaque.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #AARRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return uint32(v), nil
}
