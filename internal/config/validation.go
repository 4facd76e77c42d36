package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

func validateConfig(config *Config) error {
	var validationErrors []string

	switch config.Runtime.Loop {
	case LoopMainThread, LoopMultiThread, LoopPump:
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("runtime.loop must be one of: main, multi, pump (got: %s)", config.Runtime.Loop))
	}
	switch config.Runtime.Mode {
	case RenderNative, RenderWindowless:
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("runtime.mode must be one of: native, windowless (got: %s)", config.Runtime.Mode))
	}
	if config.Runtime.Loop == LoopPump && config.Runtime.Mode != RenderWindowless {
		validationErrors = append(validationErrors, "runtime.loop pump requires runtime.mode windowless")
	}

	switch config.Runtime.LogSeverity {
	case "off", "info", "error", "warn", "debug", "trace":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("runtime.log_severity must be one of: off, info, error, warn, debug, trace (got: %s)", config.Runtime.LogSeverity))
	}

	if _, err := ParseColor(config.Runtime.BackgroundColor); err != nil {
		validationErrors = append(validationErrors, "runtime.background_color: "+err.Error())
	}
	if _, err := ParseColor(config.WebView.BackgroundColor); err != nil {
		validationErrors = append(validationErrors, "webview.background_color: "+err.Error())
	}

	for field, v := range map[string]string{
		"runtime.cache_path":              config.Runtime.CachePath,
		"runtime.root_cache_path":         config.Runtime.RootCachePath,
		"runtime.browser_subprocess_path": config.Runtime.BrowserSubprocessPath,
		"runtime.locale":                  config.Runtime.Locale,
		"runtime.user_agent":              config.Runtime.UserAgent,
		"runtime.log_file":                config.Runtime.LogFile,
		"scheme.name":                     config.Scheme.Name,
		"scheme.domain":                   config.Scheme.Domain,
	} {
		if strings.IndexByte(v, 0) >= 0 {
			validationErrors = append(validationErrors, field+" must not contain NUL bytes")
		}
	}

	if config.WebView.Width == 0 || config.WebView.Height == 0 {
		validationErrors = append(validationErrors, "webview.width and webview.height must be positive")
	}
	if config.WebView.FrameRate < 1 || config.WebView.FrameRate > 60 {
		validationErrors = append(validationErrors, "webview.frame_rate must be between 1 and 60")
	}
	if config.WebView.DeviceScaleFactor <= 0 || config.WebView.DeviceScaleFactor > 4 {
		validationErrors = append(validationErrors, "webview.device_scale_factor must be in (0, 4]")
	}

	if config.Scheme.Enabled() && (config.Scheme.Name == "" || config.Scheme.Domain == "") {
		validationErrors = append(validationErrors, "scheme.name and scheme.domain are required when scheme.root is set")
	}

	switch strings.ToLower(config.Logging.Format) {
	case "console", "json":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.format must be console or json (got: %s)", config.Logging.Format))
	}
	if config.Logging.MaxSizeMB < 0 {
		validationErrors = append(validationErrors, "logging.max_size_mb must be non-negative")
	}
	if config.Logging.MaxBackups < 0 {
		validationErrors = append(validationErrors, "logging.max_backups must be non-negative")
	}

	if config.Cookies.Database == "" {
		validationErrors = append(validationErrors, "cookies.database cannot be empty")
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(validationErrors, "\n  - "))
	}
	return nil
}
