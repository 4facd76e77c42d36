package wew

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/bnema/wew/internal/native"
)

// LogLevel is the engine log severity.
type LogLevel int

const (
	LogOff LogLevel = iota
	LogInfo
	LogError
	LogWarn
	LogDebug
	LogTrace
)

func (l LogLevel) native() native.LogLevel {
	switch l {
	case LogInfo:
		return native.LogInfo
	case LogError:
		return native.LogError
	case LogWarn:
		return native.LogWarning
	case LogDebug:
		return native.LogDebug
	case LogTrace:
		return native.LogVerbose
	default:
		return native.LogDisable
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogDebug:
		return "debug"
	case LogTrace:
		return "trace"
	default:
		return "off"
	}
}

// ParseLogLevel maps a level name to a LogLevel. Unknown names map to LogOff.
func ParseLogLevel(s string) LogLevel {
	for l := LogOff; l <= LogTrace; l++ {
		if l.String() == s {
			return l
		}
	}
	return LogOff
}

// RuntimeAttributes is the frozen runtime configuration produced by
// RuntimeAttributesBuilder.Build.
type RuntimeAttributes struct {
	loop MessageLoop
	mode RenderMode

	customScheme *CustomSchemeAttributes

	cachePath             string
	rootCachePath         string
	browserSubprocessPath string
	frameworkDirPath      string
	mainBundlePath        string
	userAgent             string
	userAgentProduct      string
	locale                string
	logFile               string
	logSeverity           LogLevel
	javascriptFlags       string
	resourcesDirPath      string
	localesDirPath        string
	backgroundColor       uint32

	disableSignalHandlers   bool
	commandLineArgsDisabled bool
	persistSessionCookies   bool
}

// Loop returns the message loop the attributes were built for.
func (a *RuntimeAttributes) Loop() MessageLoop { return a.loop }

// Mode returns the render mode the attributes were built for.
func (a *RuntimeAttributes) Mode() RenderMode { return a.mode }

// RuntimeAttributesBuilder accumulates runtime options. String setters panic
// when the value holds a NUL byte.
type RuntimeAttributesBuilder struct {
	attrs RuntimeAttributes
}

func newRuntimeAttributesBuilder(loop MessageLoop, mode RenderMode) *RuntimeAttributesBuilder {
	return &RuntimeAttributesBuilder{attrs: RuntimeAttributes{loop: loop, mode: mode}}
}

func mustNoNUL(field, v string) string {
	if native.HasNUL(v) {
		panic(fmt.Sprintf("wew: %s contains a NUL byte", field))
	}
	return v
}

// WithCustomScheme registers a URL scheme served by the scheme's factory.
func (b *RuntimeAttributesBuilder) WithCustomScheme(scheme *CustomSchemeAttributes) *RuntimeAttributesBuilder {
	b.attrs.customScheme = scheme
	return b
}

// WithCachePath sets the directory for global browser cache data.
func (b *RuntimeAttributesBuilder) WithCachePath(v string) *RuntimeAttributesBuilder {
	b.attrs.cachePath = mustNoNUL("cache path", v)
	return b
}

// WithRootCachePath sets the common root of all profile cache directories.
func (b *RuntimeAttributesBuilder) WithRootCachePath(v string) *RuntimeAttributesBuilder {
	b.attrs.rootCachePath = mustNoNUL("root cache path", v)
	return b
}

// WithBrowserSubprocessPath sets the executable launched for helper
// processes. Windowless hosts need it.
func (b *RuntimeAttributesBuilder) WithBrowserSubprocessPath(v string) *RuntimeAttributesBuilder {
	b.attrs.browserSubprocessPath = mustNoNUL("browser subprocess path", v)
	return b
}

// WithFrameworkDirPath locates the engine framework bundle on macOS.
func (b *RuntimeAttributesBuilder) WithFrameworkDirPath(v string) *RuntimeAttributesBuilder {
	b.attrs.frameworkDirPath = mustNoNUL("framework dir path", v)
	return b
}

// WithMainBundlePath locates the application bundle on macOS.
func (b *RuntimeAttributesBuilder) WithMainBundlePath(v string) *RuntimeAttributesBuilder {
	b.attrs.mainBundlePath = mustNoNUL("main bundle path", v)
	return b
}

// WithUserAgent replaces the whole User-Agent header.
func (b *RuntimeAttributesBuilder) WithUserAgent(v string) *RuntimeAttributesBuilder {
	b.attrs.userAgent = mustNoNUL("user agent", v)
	return b
}

// WithUserAgentProduct sets the product part of the default User-Agent.
func (b *RuntimeAttributesBuilder) WithUserAgentProduct(v string) *RuntimeAttributesBuilder {
	b.attrs.userAgentProduct = mustNoNUL("user agent product", v)
	return b
}

// WithLocale sets the UI locale, such as "en-US".
func (b *RuntimeAttributesBuilder) WithLocale(v string) *RuntimeAttributesBuilder {
	b.attrs.locale = mustNoNUL("locale", v)
	return b
}

// WithLogFile sets the engine debug log path.
func (b *RuntimeAttributesBuilder) WithLogFile(v string) *RuntimeAttributesBuilder {
	b.attrs.logFile = mustNoNUL("log file", v)
	return b
}

// WithLogSeverity sets the engine log level.
func (b *RuntimeAttributesBuilder) WithLogSeverity(v LogLevel) *RuntimeAttributesBuilder {
	b.attrs.logSeverity = v
	return b
}

// WithJavascriptFlags passes extra flags to the V8 engine.
func (b *RuntimeAttributesBuilder) WithJavascriptFlags(v string) *RuntimeAttributesBuilder {
	b.attrs.javascriptFlags = mustNoNUL("javascript flags", v)
	return b
}

// WithResourcesDirPath locates the engine .pak resources.
func (b *RuntimeAttributesBuilder) WithResourcesDirPath(v string) *RuntimeAttributesBuilder {
	b.attrs.resourcesDirPath = mustNoNUL("resources dir path", v)
	return b
}

// WithLocalesDirPath locates the engine locale files.
func (b *RuntimeAttributesBuilder) WithLocalesDirPath(v string) *RuntimeAttributesBuilder {
	b.attrs.localesDirPath = mustNoNUL("locales dir path", v)
	return b
}

// WithBackgroundColor sets the ARGB color painted before a page loads.
func (b *RuntimeAttributesBuilder) WithBackgroundColor(v uint32) *RuntimeAttributesBuilder {
	b.attrs.backgroundColor = v
	return b
}

// WithDisableSignalHandlers keeps the engine from installing its own
// POSIX signal handlers.
func (b *RuntimeAttributesBuilder) WithDisableSignalHandlers(v bool) *RuntimeAttributesBuilder {
	b.attrs.disableSignalHandlers = v
	return b
}

// WithCommandLineArgsDisabled ignores engine switches on the process
// command line.
func (b *RuntimeAttributesBuilder) WithCommandLineArgsDisabled(v bool) *RuntimeAttributesBuilder {
	b.attrs.commandLineArgsDisabled = v
	return b
}

// WithPersistSessionCookies keeps session cookies across restarts when a
// cache path is set.
func (b *RuntimeAttributesBuilder) WithPersistSessionCookies(v bool) *RuntimeAttributesBuilder {
	b.attrs.persistSessionCookies = v
	return b
}

// Build freezes the configuration.
func (b *RuntimeAttributesBuilder) Build() *RuntimeAttributes {
	attrs := b.attrs
	return &attrs
}

// nativeSettings owns the settings record and every buffer it points at for
// as long as the runtime lives.
type nativeSettings struct {
	record *native.RuntimeSettings
	scheme *native.CustomSchemeAttributes
	strs   native.Strings
	pin    runtime.Pinner
}

func (s *nativeSettings) optional(v string) uintptr {
	if v == "" {
		return 0
	}
	return s.strs.Ptr(v)
}

func (s *nativeSettings) release() {
	s.pin.Unpin()
	s.strs.Release()
}

func (a *RuntimeAttributes) settings() *nativeSettings {
	s := &nativeSettings{}
	kind := a.loop.kind()

	s.record = &native.RuntimeSettings{
		CachePath:                  s.optional(a.cachePath),
		RootCachePath:              s.optional(a.rootCachePath),
		BrowserSubprocessPath:      s.optional(a.browserSubprocessPath),
		WindowlessRenderingEnabled: a.mode == Windowless,
		ExternalMessagePump:        kind == loopMessagePump,
		FrameworkDirPath:           s.optional(a.frameworkDirPath),
		MainBundlePath:             s.optional(a.mainBundlePath),
		MultiThreadedMessageLoop:   kind == loopMultiThread,
		CommandLineArgsDisabled:    a.commandLineArgsDisabled,
		PersistSessionCookies:      a.persistSessionCookies,
		UserAgent:                  s.optional(a.userAgent),
		UserAgentProduct:           s.optional(a.userAgentProduct),
		Locale:                     s.optional(a.locale),
		LogFile:                    s.optional(a.logFile),
		LogSeverity:                a.logSeverity.native(),
		JavascriptFlags:            s.optional(a.javascriptFlags),
		ResourcesDirPath:           s.optional(a.resourcesDirPath),
		LocalesDirPath:             s.optional(a.localesDirPath),
		BackgroundColor:            a.backgroundColor,
		DisableSignalHandlers:      a.disableSignalHandlers,
	}
	s.pin.Pin(s.record)

	if cs := a.customScheme; cs != nil {
		s.scheme = &native.CustomSchemeAttributes{
			Name:    s.strs.Ptr(cs.name),
			Domain:  s.strs.Ptr(cs.domain),
			Factory: cs.factory.raw(),
		}
		s.pin.Pin(s.scheme)
		s.record.CustomScheme = uintptr(unsafe.Pointer(s.scheme))
	}
	return s
}
