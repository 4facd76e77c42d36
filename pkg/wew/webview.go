package wew

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/native"
)

// WindowHandle is a platform window handle (HWND, NSView or X11 window).
type WindowHandle uintptr

// WebViewAttributes configures a webview. Use NewWebViewAttributesBuilder.
type WebViewAttributes struct {
	RequestHandlerFactory     *CustomRequestHandlerFactory
	WindowHandle              WindowHandle
	WindowlessFrameRate       uint32
	Width                     uint32
	Height                    uint32
	DeviceScaleFactor         float32
	DefaultFontSize           uint32
	DefaultFixedFontSize      uint32
	MinimumFontSize           uint32
	MinimumLogicalFontSize    uint32
	WebGL                     bool
	Databases                 bool
	Javascript                bool
	JavascriptAccessClipboard bool
	JavascriptCloseWindows    bool
	JavascriptDOMPaste        bool
	LocalStorage              bool
	BackgroundColor           uint32
}

// DefaultWebViewAttributes returns an 800x600 webview at scale 1 and 30 fps
// with javascript and local storage enabled on a white background.
func DefaultWebViewAttributes() WebViewAttributes {
	return WebViewAttributes{
		WindowlessFrameRate:    30,
		Width:                  800,
		Height:                 600,
		DeviceScaleFactor:      1.0,
		DefaultFontSize:        12,
		DefaultFixedFontSize:   12,
		MinimumFontSize:        12,
		MinimumLogicalFontSize: 12,
		Javascript:             true,
		LocalStorage:           true,
		BackgroundColor:        0xFFFFFFFF,
	}
}

func (a *WebViewAttributes) settings() *native.WebViewSettings {
	s := &native.WebViewSettings{
		Width:                     a.Width,
		Height:                    a.Height,
		DeviceScaleFactor:         a.DeviceScaleFactor,
		DefaultFontSize:           int32(a.DefaultFontSize),
		DefaultFixedFontSize:      int32(a.DefaultFixedFontSize),
		MinimumFontSize:           int32(a.MinimumFontSize),
		MinimumLogicalFontSize:    int32(a.MinimumLogicalFontSize),
		WebGL:                     a.WebGL,
		Databases:                 a.Databases,
		Javascript:                a.Javascript,
		JavascriptCloseWindows:    a.JavascriptCloseWindows,
		JavascriptAccessClipboard: a.JavascriptAccessClipboard,
		JavascriptDOMPaste:        a.JavascriptDOMPaste,
		LocalStorage:              a.LocalStorage,
		BackgroundColor:           a.BackgroundColor,
		WindowlessFrameRate:       a.WindowlessFrameRate,
		WindowHandle:              uintptr(a.WindowHandle),
	}
	if a.RequestHandlerFactory != nil {
		s.RequestHandlerFactory = a.RequestHandlerFactory.raw()
	}
	return s
}

// WebViewAttributesBuilder builds WebViewAttributes from the defaults.
type WebViewAttributesBuilder struct {
	attrs WebViewAttributes
}

// NewWebViewAttributesBuilder starts from DefaultWebViewAttributes.
func NewWebViewAttributesBuilder() *WebViewAttributesBuilder {
	return &WebViewAttributesBuilder{attrs: DefaultWebViewAttributes()}
}

// WithRequestHandlerFactory serves custom scheme requests of this webview
// through f instead of the runtime-wide factory.
func (b *WebViewAttributesBuilder) WithRequestHandlerFactory(f *CustomRequestHandlerFactory) *WebViewAttributesBuilder {
	b.attrs.RequestHandlerFactory = f
	return b
}

// WithWindowHandle embeds the webview into an existing window.
func (b *WebViewAttributesBuilder) WithWindowHandle(h WindowHandle) *WebViewAttributesBuilder {
	b.attrs.WindowHandle = h
	return b
}

// WithWindowlessFrameRate caps the frames per second of a windowless webview.
func (b *WebViewAttributesBuilder) WithWindowlessFrameRate(fps uint32) *WebViewAttributesBuilder {
	b.attrs.WindowlessFrameRate = fps
	return b
}

// WithSize sets the initial view size in logical pixels.
func (b *WebViewAttributesBuilder) WithSize(width, height uint32) *WebViewAttributesBuilder {
	b.attrs.Width = width
	b.attrs.Height = height
	return b
}

// WithDeviceScaleFactor sets the ratio of physical to logical pixels for
// windowless rendering.
func (b *WebViewAttributesBuilder) WithDeviceScaleFactor(v float32) *WebViewAttributesBuilder {
	b.attrs.DeviceScaleFactor = v
	return b
}

// WithDefaultFontSize sets the default proportional font size in pixels.
func (b *WebViewAttributesBuilder) WithDefaultFontSize(v uint32) *WebViewAttributesBuilder {
	b.attrs.DefaultFontSize = v
	return b
}

// WithDefaultFixedFontSize sets the default monospace font size in pixels.
func (b *WebViewAttributesBuilder) WithDefaultFixedFontSize(v uint32) *WebViewAttributesBuilder {
	b.attrs.DefaultFixedFontSize = v
	return b
}

// WithMinimumFontSize sets the smallest font size the page may use.
func (b *WebViewAttributesBuilder) WithMinimumFontSize(v uint32) *WebViewAttributesBuilder {
	b.attrs.MinimumFontSize = v
	return b
}

// WithMinimumLogicalFontSize sets the smallest font size after zoom.
func (b *WebViewAttributesBuilder) WithMinimumLogicalFontSize(v uint32) *WebViewAttributesBuilder {
	b.attrs.MinimumLogicalFontSize = v
	return b
}

// WithWebGL toggles WebGL.
func (b *WebViewAttributesBuilder) WithWebGL(v bool) *WebViewAttributesBuilder {
	b.attrs.WebGL = v
	return b
}

// WithDatabases toggles web databases.
func (b *WebViewAttributesBuilder) WithDatabases(v bool) *WebViewAttributesBuilder {
	b.attrs.Databases = v
	return b
}

// WithJavascript toggles script execution.
func (b *WebViewAttributesBuilder) WithJavascript(v bool) *WebViewAttributesBuilder {
	b.attrs.Javascript = v
	return b
}

// WithJavascriptAccessClipboard lets scripts read and write the clipboard.
func (b *WebViewAttributesBuilder) WithJavascriptAccessClipboard(v bool) *WebViewAttributesBuilder {
	b.attrs.JavascriptAccessClipboard = v
	return b
}

// WithJavascriptCloseWindows lets scripts close windows they did not open.
func (b *WebViewAttributesBuilder) WithJavascriptCloseWindows(v bool) *WebViewAttributesBuilder {
	b.attrs.JavascriptCloseWindows = v
	return b
}

// WithJavascriptDOMPaste lets scripts trigger paste into the DOM.
func (b *WebViewAttributesBuilder) WithJavascriptDOMPaste(v bool) *WebViewAttributesBuilder {
	b.attrs.JavascriptDOMPaste = v
	return b
}

// WithLocalStorage toggles localStorage.
func (b *WebViewAttributesBuilder) WithLocalStorage(v bool) *WebViewAttributesBuilder {
	b.attrs.LocalStorage = v
	return b
}

// WithBackgroundColor sets the ARGB color painted behind the page.
func (b *WebViewAttributesBuilder) WithBackgroundColor(argb uint32) *WebViewAttributesBuilder {
	b.attrs.BackgroundColor = argb
	return b
}

// Build returns a copy of the collected attributes.
func (b *WebViewAttributesBuilder) Build() *WebViewAttributes {
	attrs := b.attrs
	return &attrs
}

// webviewContext is the state behind a webview's engine context key.
type webviewContext struct {
	mu       sync.Mutex
	runtime  *runtimeCore
	observer webviewObserver
}

// takeRuntime hands out the held runtime reference at most once.
func (c *webviewContext) takeRuntime() *runtimeCore {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt := c.runtime
	c.runtime = nil
	return rt
}

// WebView is a browser page bound to a runtime.
type WebView struct {
	engine  native.Engine
	ptr     handle.Pointer
	key     uintptr
	url     string
	factory *factoryCore
	closed  atomic.Bool
}

func newWebView(r *Runtime, url string, attrs *WebViewAttributes, observer webviewObserver) (*WebView, error) {
	if attrs == nil {
		def := DefaultWebViewAttributes()
		attrs = &def
	}
	mustNoNUL("url", url)

	core := r.core
	wc := &webviewContext{runtime: r.sharedRef(), observer: observer}
	key := contexts.Box(wc)

	settings := attrs.settings()
	ptr := core.engine.CreateWebView(core.ptr.Raw(), url, settings, webviewCallbacks(key))
	runtime.KeepAlive(settings)
	if ptr == 0 {
		freeWebViewContext(key, wc)
		return nil, ErrFailedToCreateWebView
	}

	wv := &WebView{
		engine: core.engine,
		ptr:    handle.NewPointer(ptr),
		key:    key,
		url:    url,
	}
	if attrs.RequestHandlerFactory != nil {
		wv.factory = attrs.RequestHandlerFactory.sharedRef()
	}
	log().Debug().Str("url", url).Msg("webview created")
	return wv, nil
}

// freeWebViewContext drops the context and, if the page never reported
// Close, the runtime reference it still holds.
func freeWebViewContext(key uintptr, wc *webviewContext) {
	if !contexts.Free(key) {
		return
	}
	if rt := wc.takeRuntime(); rt != nil {
		rt.release()
	}
}

// URL returns the URL the webview was created with.
func (w *WebView) URL() string { return w.url }

// SendMessage posts message to the page's window.MessageTransport. Delivery
// is not acknowledged. It panics when message holds a NUL byte.
func (w *WebView) SendMessage(message string) {
	mustNoNUL("message", message)
	if w.closed.Load() {
		return
	}
	w.engine.SendMessage(w.ptr.Raw(), message)
}

// WindowHandle returns the platform window of a native window webview.
func (w *WebView) WindowHandle() (WindowHandle, bool) {
	if w.closed.Load() {
		return 0, false
	}
	h := w.engine.WindowHandle(w.ptr.Raw())
	return WindowHandle(h), h != 0
}

// SetDevToolsEnabled opens or closes the inspector window.
func (w *WebView) SetDevToolsEnabled(enabled bool) {
	if w.closed.Load() {
		return
	}
	w.engine.SetDevToolsState(w.ptr.Raw(), enabled)
}

// Close closes the page and frees its engine context. It is safe to call
// more than once.
func (w *WebView) Close() {
	if w.closed.Swap(true) {
		return
	}
	w.engine.CloseWebView(w.ptr.Raw())

	if wc, ok := loadWebView(w.key); ok {
		freeWebViewContext(w.key, wc)
	}
	if w.factory != nil {
		w.factory.release()
	}
}

// WindowlessWebView is a WebView rendering off screen. The host feeds it
// input and receives frames through WindowlessRenderWebViewHandler.
type WindowlessWebView struct {
	*WebView

	mouseMu sync.Mutex
	mouse   native.MouseEvent
}

// Mouse forwards a pointer event. Position and held buttons are remembered
// between calls because every engine mouse call carries them.
func (w *WindowlessWebView) Mouse(ev MouseEvent) {
	if w.closed.Load() {
		return
	}
	w.mouseMu.Lock()
	defer w.mouseMu.Unlock()

	raw := w.ptr.Raw()
	switch ev := ev.(type) {
	case MouseMove:
		w.mouse.X, w.mouse.Y = ev.Position.X, ev.Position.Y
		w.engine.MouseMove(raw, w.mouse)
	case MouseWheel:
		w.engine.MouseWheel(raw, w.mouse, ev.Delta.X, ev.Delta.Y)
	case MouseClick:
		if ev.Position != nil {
			w.mouse.X, w.mouse.Y = ev.Position.X, ev.Position.Y
		}
		if ev.Pressed {
			w.mouse.Modifiers |= ev.Button.flag()
		} else {
			w.mouse.Modifiers &^= ev.Button.flag()
		}
		w.engine.MouseClick(raw, w.mouse, ev.Button.native(), ev.Pressed)
	}
}

// Keyboard forwards a key event.
func (w *WindowlessWebView) Keyboard(ev KeyboardEvent) {
	if w.closed.Load() {
		return
	}
	w.engine.Keyboard(w.ptr.Raw(), ev.native())
}

// IME forwards an input method action. It panics when the text holds a NUL
// byte.
func (w *WindowlessWebView) IME(action IMEAction) {
	if w.closed.Load() {
		return
	}
	switch a := action.(type) {
	case IMEComposition:
		w.engine.IMEComposition(w.ptr.Raw(), mustNoNUL("ime text", a.Text))
	case IMEPreedit:
		w.engine.IMESetComposition(w.ptr.Raw(), mustNoNUL("ime text", a.Text), a.X, a.Y)
	}
}

// Touch forwards a touch point update.
func (w *WindowlessWebView) Touch(ev TouchEvent) {
	if w.closed.Load() {
		return
	}
	w.engine.Touch(w.ptr.Raw(), ev.native())
}

// Resize changes the view size in pixels.
func (w *WindowlessWebView) Resize(width, height uint32) {
	if w.closed.Load() {
		return
	}
	w.engine.Resize(w.ptr.Raw(), int32(width), int32(height))
}

// Focus gives or removes keyboard focus.
func (w *WindowlessWebView) Focus(focused bool) {
	if w.closed.Load() {
		return
	}
	w.engine.SetFocus(w.ptr.Raw(), focused)
}
