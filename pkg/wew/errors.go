package wew

import "errors"

var (
	// ErrNonUIThread is returned when a main-thread-only call is made from
	// another thread.
	ErrNonUIThread = errors.New("wew: not on the main thread")
	// ErrRuntimeAlreadyExists is returned when a runtime is already alive
	// in this process.
	ErrRuntimeAlreadyExists   = errors.New("wew: runtime already exists")
	ErrFailedToCreateRuntime  = errors.New("wew: failed to create runtime")
	ErrRuntimeNotInitialized  = errors.New("wew: runtime not initialized")
	ErrFailedToCreateWebView  = errors.New("wew: failed to create webview")
	ErrRenderModeMismatch     = errors.New("wew: render mode mismatch")
	ErrEngineUnavailable      = errors.New("wew: engine library unavailable")
	ErrMultiThreadUnsupported = errors.New("wew: multi-threaded message loop is not supported on macOS")
)

// Cookie errors.
var (
	ErrInvalidURL          = errors.New("wew: invalid url")
	ErrInvalidCookieName   = errors.New("wew: invalid cookie name")
	ErrInvalidCookieValue  = errors.New("wew: invalid cookie value")
	ErrInvalidCookieDomain = errors.New("wew: invalid cookie domain")
	ErrInvalidCookiePath   = errors.New("wew: invalid cookie path")
	ErrSetCookieFailed     = errors.New("wew: set cookie failed")
	ErrDeleteCookieFailed  = errors.New("wew: delete cookie failed")
	ErrFlushStoreFailed    = errors.New("wew: flush cookie store failed")
	ErrVisitCookiesFailed  = errors.New("wew: cookie visit not started")
	ErrCookieManagerClosed = errors.New("wew: cookie manager closed")
)
