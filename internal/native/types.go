// Package native mirrors the C surface of libwew and loads it with purego.
//
// Every record in this file matches the layout of its C counterpart field for
// field. Go inserts the same alignment padding as the platform C compiler on
// the 64-bit targets the engine ships for, so no explicit padding fields are
// declared.
package native

// Rect is a pixel rectangle as reported by the engine.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// LogLevel is the engine log severity.
type LogLevel int32

const (
	LogDefault LogLevel = 0
	LogVerbose LogLevel = 1
	LogDebug   LogLevel = 1
	LogInfo    LogLevel = 2
	LogWarning LogLevel = 3
	LogError   LogLevel = 4
	LogFatal   LogLevel = 5
	LogDisable LogLevel = 99
)

// CustomSchemeAttributes registers a scheme and the factory serving it.
type CustomSchemeAttributes struct {
	Name    uintptr
	Domain  uintptr
	Factory uintptr
}

// RuntimeSettings is the record handed to create_runtime.
// String fields hold pointers to NUL-terminated buffers or zero.
type RuntimeSettings struct {
	CustomScheme               uintptr
	CachePath                  uintptr
	RootCachePath              uintptr
	BrowserSubprocessPath      uintptr
	WindowlessRenderingEnabled bool
	ExternalMessagePump        bool
	FrameworkDirPath           uintptr
	MainBundlePath             uintptr
	MultiThreadedMessageLoop   bool
	CommandLineArgsDisabled    bool
	PersistSessionCookies      bool
	UserAgent                  uintptr
	UserAgentProduct           uintptr
	Locale                     uintptr
	LogFile                    uintptr
	LogSeverity                LogLevel
	JavascriptFlags            uintptr
	ResourcesDirPath           uintptr
	LocalesDirPath             uintptr
	BackgroundColor            uint32
	DisableSignalHandlers      bool
}

// WebViewSettings is the record handed to create_webview.
type WebViewSettings struct {
	Width                     uint32
	Height                    uint32
	DeviceScaleFactor         float32
	DefaultFontSize           int32
	DefaultFixedFontSize      int32
	MinimumFontSize           int32
	MinimumLogicalFontSize    int32
	WebGL                     bool
	Databases                 bool
	Javascript                bool
	JavascriptCloseWindows    bool
	JavascriptAccessClipboard bool
	JavascriptDOMPaste        bool
	LocalStorage              bool
	BackgroundColor           uint32
	WindowlessFrameRate       uint32
	WindowHandle              uintptr
	RequestHandlerFactory     uintptr
}

// WebViewState discriminants.
const (
	StateBeforeLoad   int32 = 1
	StateLoaded       int32 = 2
	StateLoadError    int32 = 3
	StateRequestClose int32 = 4
	StateClose        int32 = 5
)

// CursorNumValues is one past the last valid cursor discriminant.
const CursorNumValues int32 = 50

// Event flag bits shared by mouse, keyboard and touch events.
const (
	EventFlagNone                    uint32 = 0
	EventFlagCapsLockOn              uint32 = 1 << 0
	EventFlagShiftDown               uint32 = 1 << 1
	EventFlagControlDown             uint32 = 1 << 2
	EventFlagAltDown                 uint32 = 1 << 3
	EventFlagLeftMouseButton         uint32 = 1 << 4
	EventFlagMiddleMouseButton       uint32 = 1 << 5
	EventFlagRightMouseButton        uint32 = 1 << 6
	EventFlagCommandDown             uint32 = 1 << 7
	EventFlagNumLockOn               uint32 = 1 << 8
	EventFlagIsKeyPad                uint32 = 1 << 9
	EventFlagIsLeft                  uint32 = 1 << 10
	EventFlagIsRight                 uint32 = 1 << 11
	EventFlagAltGrDown               uint32 = 1 << 12
	EventFlagIsRepeat                uint32 = 1 << 13
	EventFlagPrecisionScrollingDelta uint32 = 1 << 14
	EventFlagScrollByPage            uint32 = 1 << 15
)

// MouseEvent is the positional state sent with every mouse call.
type MouseEvent struct {
	X         int32
	Y         int32
	Modifiers uint32
}

// MouseButton discriminants.
type MouseButton int32

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

// KeyEventType discriminants.
type KeyEventType int32

const (
	KeyEventRawKeyDown KeyEventType = iota
	KeyEventKeyDown
	KeyEventKeyUp
	KeyEventChar
)

// KeyEvent is the keyboard record sent to webview_keyboard.
type KeyEvent struct {
	Type                 KeyEventType
	Modifiers            uint32
	WindowsKeyCode       int32
	NativeKeyCode        int32
	IsSystemKey          int32
	Character            uint16
	UnmodifiedCharacter  uint16
	FocusOnEditableField int32
}

// TouchEventType discriminants.
type TouchEventType int32

const (
	TouchReleased TouchEventType = iota
	TouchPressed
	TouchMoved
	TouchCancelled
)

// PointerType discriminants.
type PointerType int32

const (
	PointerTouch PointerType = iota
	PointerMouse
	PointerPen
	PointerEraser
	PointerUnknown
)

// TouchEvent is the touch record sent to webview_touch.
type TouchEvent struct {
	ID            int32
	X             float32
	Y             float32
	RadiusX       float32
	RadiusY       float32
	RotationAngle float32
	Pressure      float32
	Type          TouchEventType
	Modifiers     uint32
	PointerType   PointerType
}

// Request is the record the engine passes to a request handler factory.
type Request struct {
	URL      uintptr
	Method   uintptr
	Referrer uintptr
}

// Response is filled by a request handler. MimeType points at an
// engine-owned buffer of MimeTypeCapacity bytes.
type Response struct {
	StatusCode    int32
	ContentLength uint64
	MimeType      uintptr
}

// MimeTypeCapacity is the size of the engine-owned MIME buffer, NUL included.
const MimeTypeCapacity = 255

// Cookie is the record exchanged with the cookie manager.
type Cookie struct {
	Name       uintptr
	Value      uintptr
	Domain     uintptr
	Path       uintptr
	Secure     bool
	HTTPOnly   bool
	Expires    int64
	HasExpires bool
	Creation   int64
	LastAccess int64
	SameSite   int32
	Priority   int32
}

// C-side records holding function pointers. They only exist inside Library.

type cRuntimeHandler struct {
	onContextInitialized      uintptr
	onScheduleMessagePumpWork uintptr
	context                   uintptr
}

type cWebViewHandler struct {
	onCursor           uintptr
	onStateChange      uintptr
	onIMERect          uintptr
	onFrame            uintptr
	onTitleChange      uintptr
	onFullscreenChange uintptr
	onMessage          uintptr
	context            uintptr
}

type cRequestHandler struct {
	open        uintptr
	skip        uintptr
	read        uintptr
	getResponse uintptr
	cancel      uintptr
	destroy     uintptr
	context     uintptr
}

type cRequestHandlerFactory struct {
	request               uintptr
	destroyRequestHandler uintptr
	context               uintptr
}

type cCookieVisitor struct {
	visit   uintptr
	destroy uintptr
	context uintptr
}
