package wew

import (
	"fmt"
	"os"
	"runtime/debug"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/native"
)

// exitObserverPanic is the process exit status after a handler panic.
const exitObserverPanic = 70

// fatal terminates the process. Tests replace it.
var fatal = func(code int) { os.Exit(code) }

// guard runs a handler call made on behalf of the engine. A panic must not
// unwind into engine frames, so it is logged and the process exits.
func guard(callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log().WithLevel(zerolog.FatalLevel).
				Str("callback", callback).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked inside engine callback")
			fatal(exitObserverPanic)
		}
	}()
	fn()
}

// runtimeContext is the state behind a runtime's engine context key.
type runtimeContext struct {
	core    *runtimeCore
	handler RuntimeHandler
	pump    MessagePumpRuntimeHandler
}

func newRuntimeContext(core *runtimeCore, h RuntimeHandler) *runtimeContext {
	rc := &runtimeContext{core: core, handler: h}
	if p, ok := h.(MessagePumpRuntimeHandler); ok {
		rc.pump = p
	}
	return rc
}

func runtimeCallbacks(key uintptr) native.RuntimeHandler {
	return native.RuntimeHandler{
		OnContextInitialized:      onContextInitialized,
		OnScheduleMessagePumpWork: onScheduleMessagePumpWork,
		Context:                   key,
	}
}

func onContextInitialized(ctx uintptr) {
	rc, ok := handle.LoadAs[*runtimeContext](contexts, ctx)
	if !ok {
		return
	}
	rc.core.initialized.Store(true)
	setState(RuntimeInitialized)
	log().Debug().Msg("runtime context initialized")
	if rc.handler != nil {
		guard("context initialized", rc.handler.OnContextInitialized)
	}
}

func onScheduleMessagePumpWork(delay int64, ctx uintptr) {
	rc, ok := handle.LoadAs[*runtimeContext](contexts, ctx)
	if !ok || rc.pump == nil {
		return
	}
	guard("schedule message pump work", func() { rc.pump.OnScheduleMessagePumpWork(delay) })
}

// webviewObserver holds exactly one of the two handler shapes.
type webviewObserver struct {
	plain      WebViewHandler
	windowless WindowlessRenderWebViewHandler
}

// common returns the handler receiving events shared by both shapes.
func (o webviewObserver) common() WebViewHandler {
	switch {
	case o.windowless != nil:
		return o.windowless
	case o.plain != nil:
		return o.plain
	default:
		return nil
	}
}

func webviewCallbacks(key uintptr) native.WebViewHandler {
	return native.WebViewHandler{
		OnCursor:           onCursor,
		OnStateChange:      onStateChange,
		OnIMERect:          onIMERect,
		OnFrame:            onFrame,
		OnTitleChange:      onTitleChange,
		OnFullscreenChange: onFullscreenChange,
		OnMessage:          onMessage,
		Context:            key,
	}
}

func loadWebView(ctx uintptr) (*webviewContext, bool) {
	return handle.LoadAs[*webviewContext](contexts, ctx)
}

func onStateChange(state int32, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok {
		return
	}
	s, ok := webViewStateFromNative(state)
	if !ok {
		log().Debug().Int32("state", state).Msg("dropping unknown webview state")
		return
	}

	// The runtime reference goes away before the handler runs, so a handler
	// that shuts the host down does not keep the runtime alive.
	if s == Close {
		if rt := wc.takeRuntime(); rt != nil {
			rt.release()
		}
	}

	if h := wc.observer.common(); h != nil {
		guard("state change", func() { h.OnStateChange(s) })
	}
}

func onTitleChange(title uintptr, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok || title == 0 {
		return
	}
	t := native.GoString(title)
	if !utf8.ValidString(t) {
		return
	}
	if h := wc.observer.common(); h != nil {
		guard("title change", func() { h.OnTitleChange(t) })
	}
}

func onFullscreenChange(fullscreen bool, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok {
		return
	}
	if h := wc.observer.common(); h != nil {
		guard("fullscreen change", func() { h.OnFullscreenChange(fullscreen) })
	}
}

func onMessage(message uintptr, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok || message == 0 {
		return
	}
	m := native.GoString(message)
	if !utf8.ValidString(m) {
		return
	}
	if h := wc.observer.common(); h != nil {
		guard("message", func() { h.OnMessage(m) })
	}
}

func onIMERect(rect native.Rect, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok || wc.observer.windowless == nil {
		return
	}
	h := wc.observer.windowless
	guard("ime rect", func() { h.OnIMERect(rectFromNative(rect)) })
}

func onFrame(buf uintptr, rect *native.Rect, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok || rect == nil || wc.observer.windowless == nil {
		return
	}
	r := rectFromNative(*rect)
	frame := native.Bytes(buf, int(r.Width)*int(r.Height)*4)
	h := wc.observer.windowless
	guard("frame", func() { h.OnFrame(frame, r) })
}

func onCursor(cursor int32, ctx uintptr) {
	wc, ok := loadWebView(ctx)
	if !ok || wc.observer.windowless == nil {
		return
	}
	if cursor < 0 || cursor >= native.CursorNumValues {
		return
	}
	h := wc.observer.windowless
	guard("cursor", func() { h.OnCursor(Cursor(cursor)) })
}
