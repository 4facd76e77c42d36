package config

import "path/filepath"

const (
	defaultWidth      = 800
	defaultHeight     = 600
	defaultFrameRate  = 30
	defaultMaxLogMB   = 10
	defaultMaxBackups = 3
)

// DefaultConfig returns the default configuration. Paths fall back to
// relative names when the XDG directories cannot be resolved.
func DefaultConfig() *Config {
	cacheDir, err := GetCacheDir()
	if err != nil {
		cacheDir = appName
	}
	logDir, err := GetLogDir()
	if err != nil {
		logDir = "logs"
	}
	dbFile, err := GetCookieDatabaseFile()
	if err != nil {
		dbFile = cookieDatabaseName
	}

	return &Config{
		Runtime: RuntimeConfig{
			Loop:            LoopMainThread,
			Mode:            RenderNative,
			CachePath:       filepath.Join(cacheDir, "default"),
			RootCachePath:   cacheDir,
			LogSeverity:     "off",
			BackgroundColor: "#ffffff",
		},
		WebView: WebViewConfig{
			Width:             defaultWidth,
			Height:            defaultHeight,
			FrameRate:         defaultFrameRate,
			DeviceScaleFactor: 1,
			Javascript:        true,
			LocalStorage:      true,
			BackgroundColor:   "#ffffff",
		},
		Scheme: SchemeConfig{
			Name:   "wew",
			Domain: "app",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Dir:        logDir,
			MaxSizeMB:  defaultMaxLogMB,
			MaxBackups: defaultMaxBackups,
		},
		Cookies: CookiesConfig{
			Database: dbFile,
		},
	}
}
