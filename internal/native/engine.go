package native

// RuntimeHandler carries the runtime callback slots and their context key.
type RuntimeHandler struct {
	OnContextInitialized      func(ctx uintptr)
	OnScheduleMessagePumpWork func(delayMS int64, ctx uintptr)
	Context                   uintptr
}

// WebViewHandler carries the webview callback slots and their context key.
// String and buffer arguments are raw pointers valid only for the call.
type WebViewHandler struct {
	OnCursor           func(cursor int32, ctx uintptr)
	OnStateChange      func(state int32, ctx uintptr)
	OnIMERect          func(rect Rect, ctx uintptr)
	OnFrame            func(buf uintptr, rect *Rect, ctx uintptr)
	OnTitleChange      func(title uintptr, ctx uintptr)
	OnFullscreenChange func(fullscreen bool, ctx uintptr)
	OnMessage          func(message uintptr, ctx uintptr)
	Context            uintptr
}

// RequestHandler carries the per-request callback slots.
//
// Skip and Read return the value the engine expects in its cursor
// out-parameter together with the boolean result.
type RequestHandler struct {
	Open        func(ctx uintptr) bool
	Skip        func(size uint64, ctx uintptr) (cursor int32, ok bool)
	Read        func(buf []byte, ctx uintptr) (cursor int32, ok bool)
	GetResponse func(ctx uintptr) (status int32, length uint64, mimeType string)
	Cancel      func(ctx uintptr)
	Destroy     func(ctx uintptr)
}

// RequestHandlerFactory carries the factory slot. Request returns the context
// key of a new request handler, or false to decline the request.
type RequestHandlerFactory struct {
	Request func(url, method, referrer uintptr, ctx uintptr) (handlerCtx uintptr, ok bool)
	Handler RequestHandler
	Context uintptr
}

// CookieVisitor carries the cookie visitor slots. Destroy is called once when
// the engine is done with the visitor.
type CookieVisitor struct {
	Visit   func(cookie *Cookie, count, total int32, deleteCookie *bool, ctx uintptr) bool
	Destroy func(ctx uintptr)
	Context uintptr
}

// Engine is the contract the binding requires from libwew.
type Engine interface {
	CreateRuntime(settings *RuntimeSettings, handler RuntimeHandler) uintptr
	ExecuteRuntime(runtime uintptr, args []string) bool
	CloseRuntime(runtime uintptr)

	CreateWebView(runtime uintptr, url string, settings *WebViewSettings, handler WebViewHandler) uintptr
	CloseWebView(webview uintptr)

	MouseClick(webview uintptr, event MouseEvent, button MouseButton, pressed bool)
	MouseWheel(webview uintptr, event MouseEvent, x, y int32)
	MouseMove(webview uintptr, event MouseEvent)
	Keyboard(webview uintptr, event KeyEvent)
	Touch(webview uintptr, event TouchEvent)
	IMEComposition(webview uintptr, input string)
	IMESetComposition(webview uintptr, input string, x, y int32)
	SendMessage(webview uintptr, message string)
	SetDevToolsState(webview uintptr, open bool)
	Resize(webview uintptr, width, height int32)
	WindowHandle(webview uintptr) uintptr
	SetFocus(webview uintptr, enable bool)

	RunMessageLoop()
	QuitMessageLoop()
	PollMessageLoop()

	ExecuteSubprocess(args []string) int32
	ExitCode() int32
	PostTask(callback func(ctx uintptr), ctx uintptr) bool

	// NewRequestHandlerFactory returns a stable pointer to a factory record
	// the engine may retain until FreeRequestHandlerFactory.
	NewRequestHandlerFactory(factory RequestHandlerFactory) uintptr
	FreeRequestHandlerFactory(ptr uintptr)

	GlobalCookieManager() uintptr
	SetCookie(manager uintptr, url string, cookie *Cookie) bool
	DeleteCookies(manager uintptr, url string, name *string) bool
	FlushCookieStore(manager uintptr) bool
	// VisitAllCookies and VisitURLCookies report whether the visitor was
	// handed over. Only a handed-over visitor gets its Destroy call.
	VisitAllCookies(manager uintptr, visitor CookieVisitor) bool
	VisitURLCookies(manager uintptr, url string, includeHTTPOnly bool, visitor CookieVisitor) bool
	DestroyCookieManager(manager uintptr)
}
