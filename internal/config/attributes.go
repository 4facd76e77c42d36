package config

import (
	"github.com/bnema/wew/pkg/wew"
)

// MessageLoop returns the loop selected by runtime.loop.
func (c *Config) MessageLoop() wew.MessageLoop {
	switch c.Runtime.Loop {
	case LoopMultiThread:
		return wew.NewMultiThreadMessageLoop()
	case LoopPump:
		return wew.MessagePumpLoop{}
	default:
		return wew.MainThreadMessageLoop{}
	}
}

// RenderMode returns the binding render mode selected by runtime.mode.
func (c *Config) RenderMode() wew.RenderMode {
	if c.Runtime.Mode == RenderWindowless {
		return wew.Windowless
	}
	return wew.NativeWindow
}

// RuntimeAttributes builds runtime attributes for loop. scheme may be nil.
// The configuration must have passed validation.
func (c *Config) RuntimeAttributes(loop wew.MessageLoop, scheme *wew.CustomSchemeAttributes) *wew.RuntimeAttributes {
	rc := c.Runtime
	bg, _ := ParseColor(rc.BackgroundColor)

	b := loop.NewRuntimeAttributesBuilder(c.RenderMode()).
		WithCachePath(rc.CachePath).
		WithRootCachePath(rc.RootCachePath).
		WithLogSeverity(wew.ParseLogLevel(rc.LogSeverity)).
		WithBackgroundColor(bg).
		WithPersistSessionCookies(rc.PersistSessionCookies)
	if rc.BrowserSubprocessPath != "" {
		b.WithBrowserSubprocessPath(rc.BrowserSubprocessPath)
	}
	if rc.Locale != "" {
		b.WithLocale(rc.Locale)
	}
	if rc.UserAgent != "" {
		b.WithUserAgent(rc.UserAgent)
	}
	if rc.LogFile != "" {
		b.WithLogFile(rc.LogFile)
	}
	if scheme != nil {
		b.WithCustomScheme(scheme)
	}
	return b.Build()
}

// WebViewAttributes builds webview attributes. factory may be nil.
func (c *Config) WebViewAttributes(factory *wew.CustomRequestHandlerFactory) *wew.WebViewAttributes {
	wc := c.WebView
	bg, _ := ParseColor(wc.BackgroundColor)

	b := wew.NewWebViewAttributesBuilder().
		WithSize(wc.Width, wc.Height).
		WithWindowlessFrameRate(wc.FrameRate).
		WithDeviceScaleFactor(wc.DeviceScaleFactor).
		WithJavascript(wc.Javascript).
		WithWebGL(wc.WebGL).
		WithLocalStorage(wc.LocalStorage).
		WithDatabases(wc.Databases).
		WithBackgroundColor(bg)
	if factory != nil {
		b.WithRequestHandlerFactory(factory)
	}
	return b.Build()
}
