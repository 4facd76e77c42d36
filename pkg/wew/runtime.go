package wew

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/native"
)

// runtimeCore is the reference-counted runtime state. The host Runtime holds
// one reference and every webview holds one until its page reports Close.
type runtimeCore struct {
	engine   native.Engine
	ptr      handle.Pointer
	key      uintptr
	loop     MessageLoop
	mode     RenderMode
	settings *nativeSettings
	scheme   *factoryCore

	initialized atomic.Bool
	refs        atomic.Int32
	teardown    sync.Once
}

func (c *runtimeCore) acquire() *runtimeCore {
	c.refs.Add(1)
	return c
}

func (c *runtimeCore) release() {
	if c.refs.Add(-1) == 0 {
		c.teardown.Do(c.close)
	}
}

// close quits a multi-threaded loop before closing the handle, since the
// engine close must not race the thread driving the loop.
func (c *runtimeCore) close() {
	setState(RuntimeClosing)
	if c.loop.kind() == loopMultiThread {
		c.engine.QuitMessageLoop()
	}
	runtimeRunning.Store(false)
	c.engine.CloseRuntime(c.ptr.Raw())
	contexts.Free(c.key)

	c.settings.release()
	if c.scheme != nil {
		c.scheme.release()
	}
	setState(NoRuntime)
	log().Debug().Msg("runtime closed")
}

// Runtime is the process-wide engine runtime.
type Runtime struct {
	core   *runtimeCore
	closed atomic.Bool
}

// CreateRuntime starts the process runtime.
//
// It must be called on the main thread and fails with
// ErrRuntimeAlreadyExists while another runtime is alive. For
// MainThreadMessageLoop and MessagePumpLoop the engine is started
// synchronously; for MultiThreadMessageLoop a dedicated thread drives it and
// CreateRuntime returns immediately. If handler implements
// MessagePumpRuntimeHandler it also receives pump scheduling requests.
func (a *RuntimeAttributes) CreateRuntime(handler RuntimeHandler) (*Runtime, error) {
	if runtimeRunning.Load() {
		return nil, ErrRuntimeAlreadyExists
	}
	// Only a main-thread caller may claim the flag.
	if !isMainThread() {
		return nil, ErrNonUIThread
	}
	if !runtimeRunning.CompareAndSwap(false, true) {
		return nil, ErrRuntimeAlreadyExists
	}

	e, err := currentEngine()
	if err != nil {
		runtimeRunning.Store(false)
		return nil, err
	}
	setState(RuntimeStarting)

	core := &runtimeCore{
		engine:   e,
		loop:     a.loop,
		mode:     a.mode,
		settings: a.settings(),
	}
	if a.customScheme != nil && a.customScheme.factory != nil {
		core.scheme = a.customScheme.factory.sharedRef()
	}
	core.key = contexts.Box(newRuntimeContext(core, handler))

	ptr := e.CreateRuntime(core.settings.record, runtimeCallbacks(core.key))
	if ptr == 0 {
		contexts.Free(core.key)
		core.settings.release()
		if core.scheme != nil {
			core.scheme.release()
		}
		runtimeRunning.Store(false)
		setState(NoRuntime)
		return nil, ErrFailedToCreateRuntime
	}
	core.ptr = handle.NewPointer(ptr)
	core.refs.Store(1)

	args := processArgs()
	if a.loop.kind() == loopMultiThread {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			e.ExecuteRuntime(ptr, args)
		}()
	} else {
		e.ExecuteRuntime(ptr, args)
	}

	log().Debug().
		Str("mode", a.mode.String()).
		Int("loop", int(a.loop.kind())).
		Msg("runtime created")
	return &Runtime{core: core}, nil
}

// Initialized reports whether the engine context is ready for webviews.
func (r *Runtime) Initialized() bool {
	return r.core.initialized.Load()
}

// Mode returns the render mode of the runtime's webviews.
func (r *Runtime) Mode() RenderMode { return r.core.mode }

// Loop returns the message loop driving the runtime.
func (r *Runtime) Loop() MessageLoop { return r.core.loop }

func (r *Runtime) sharedRef() *runtimeCore {
	return r.core.acquire()
}

// Close releases the host's reference. The engine runtime is closed once
// every webview created from it has closed as well. Calling Close again is a
// no-op.
func (r *Runtime) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.core.release()
}

func (r *Runtime) checkCreate(mode RenderMode) error {
	if r.closed.Load() {
		return ErrRuntimeNotInitialized
	}
	if !r.core.initialized.Load() {
		return ErrRuntimeNotInitialized
	}
	if r.core.mode != mode {
		return ErrRenderModeMismatch
	}
	return nil
}

// CreateWebView opens a native window webview on url. The runtime must use
// NativeWindow mode and be initialized.
func (r *Runtime) CreateWebView(url string, attrs *WebViewAttributes, handler WebViewHandler) (*WebView, error) {
	if err := r.checkCreate(NativeWindow); err != nil {
		return nil, err
	}
	return newWebView(r, url, attrs, webviewObserver{plain: handler})
}

// CreateWindowlessWebView opens a windowless webview on url. The runtime
// must use Windowless mode and be initialized.
func (r *Runtime) CreateWindowlessWebView(url string, attrs *WebViewAttributes, handler WindowlessRenderWebViewHandler) (*WindowlessWebView, error) {
	if err := r.checkCreate(Windowless); err != nil {
		return nil, err
	}
	wv, err := newWebView(r, url, attrs, webviewObserver{windowless: handler})
	if err != nil {
		return nil, err
	}
	return &WindowlessWebView{WebView: wv}, nil
}
