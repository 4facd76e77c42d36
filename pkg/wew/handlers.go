package wew

// RuntimeHandler observes runtime lifecycle events.
type RuntimeHandler interface {
	// OnContextInitialized runs once the engine context is ready. Webviews
	// can be created from here on.
	OnContextInitialized()
}

// MessagePumpRuntimeHandler is a RuntimeHandler for MessagePumpLoop hosts.
type MessagePumpRuntimeHandler interface {
	RuntimeHandler
	// OnScheduleMessagePumpWork asks for MessagePumpLoop.Poll to be called
	// after delayMS milliseconds. Zero or less means as soon as possible.
	OnScheduleMessagePumpWork(delayMS int64)
}

// WebViewHandler observes events common to every webview.
type WebViewHandler interface {
	OnStateChange(state WebViewState)
	OnTitleChange(title string)
	OnFullscreenChange(fullscreen bool)
	// OnMessage receives strings sent by the page through
	// window.MessageTransport.send.
	OnMessage(message string)
}

// WindowlessRenderWebViewHandler additionally receives rendering events of
// windowless webviews.
type WindowlessRenderWebViewHandler interface {
	WebViewHandler
	OnIMERect(rect Rect)
	// OnFrame receives a tightly packed BGRA buffer of
	// rect.Width*rect.Height*4 bytes. The slice aliases engine memory and is
	// only valid until OnFrame returns.
	OnFrame(frame []byte, rect Rect)
	OnCursor(cursor Cursor)
}

// NopWebViewHandler ignores every webview event. Embed it to implement only
// the callbacks of interest.
type NopWebViewHandler struct{}

func (NopWebViewHandler) OnStateChange(WebViewState) {}
func (NopWebViewHandler) OnTitleChange(string)       {}
func (NopWebViewHandler) OnFullscreenChange(bool)    {}
func (NopWebViewHandler) OnMessage(string)           {}

// NopWindowlessHandler ignores every windowless webview event.
type NopWindowlessHandler struct {
	NopWebViewHandler
}

func (NopWindowlessHandler) OnIMERect(Rect)       {}
func (NopWindowlessHandler) OnFrame([]byte, Rect) {}
func (NopWindowlessHandler) OnCursor(Cursor)      {}

// RuntimeHandlerFunc adapts a function to RuntimeHandler.
type RuntimeHandlerFunc func()

func (f RuntimeHandlerFunc) OnContextInitialized() { f() }
