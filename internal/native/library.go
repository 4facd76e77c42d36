package native

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/bnema/wew/internal/logging"
	"github.com/ebitengine/purego"
)

// EnvLibraryPath overrides the directory or file libwew is loaded from.
const EnvLibraryPath = "WEW_LIBRARY_PATH"

// ErrSymbolMissing is returned when libwew lacks a required entry point.
var ErrSymbolMissing = errors.New("native: symbol missing")

// Library is an Engine backed by a dynamically loaded libwew.
type Library struct {
	path   string
	handle uintptr

	mu       sync.Mutex
	runtimes map[uintptr]uintptr
	webviews map[uintptr]uintptr

	postTaskWithMainThread func(callback, ctx uintptr) bool
	getExitCode            func() int32
	executeSubprocess      func(argc int32, argv *uintptr) int32
	runMessageLoop         func()
	quitMessageLoop        func()
	pollMessageLoop        func()
	createRuntime          func(settings *RuntimeSettings, handler cRuntimeHandler) uintptr
	executeRuntime         func(runtime uintptr, argc int32, argv *uintptr) bool
	closeRuntime           func(runtime uintptr)
	createWebView          func(runtime, url uintptr, settings *WebViewSettings, handler cWebViewHandler) uintptr
	closeWebView           func(webview uintptr)
	mouseClick             func(webview uintptr, event MouseEvent, button MouseButton, pressed bool)
	mouseWheel             func(webview uintptr, event MouseEvent, x, y int32)
	mouseMove              func(webview uintptr, event MouseEvent)
	keyboard               func(webview uintptr, event KeyEvent)
	touch                  func(webview uintptr, event TouchEvent)
	imeComposition         func(webview, input uintptr)
	imeSetComposition      func(webview, input uintptr, x, y int32)
	sendMessage            func(webview, message uintptr)
	setDevToolsState       func(webview uintptr, open bool)
	resize                 func(webview uintptr, width, height int32)
	getWindowHandle        func(webview uintptr) uintptr
	setFocus               func(webview uintptr, enable bool)

	getGlobalCookieManager func() uintptr
	setCookie              func(manager, url uintptr, cookie *Cookie) bool
	deleteCookies          func(manager, url, name uintptr) bool
	flushCookieStore       func(manager uintptr) bool
	visitAllCookies        func(manager, visitor uintptr)
	visitURLCookies        func(manager, url uintptr, includeHTTPOnly bool, visitor uintptr)
	destroyCookieManager   func(manager uintptr)
}

var _ Engine = (*Library)(nil)

// LibraryName is the platform file name of libwew.
func LibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libwew.dylib"
	case "windows":
		return "wew.dll"
	default:
		return "libwew.so"
	}
}

// Candidates lists the paths Load tries, in order.
func Candidates() []string {
	name := LibraryName()
	paths := make([]string, 0, 4)

	if override := os.Getenv(EnvLibraryPath); override != "" {
		if filepath.Ext(override) != "" {
			paths = append(paths, override)
		} else {
			paths = append(paths, filepath.Join(override, name))
		}
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(dir, name))
		if runtime.GOOS == "darwin" {
			paths = append(paths, filepath.Join(dir, "..", "Frameworks", name))
		}
	}
	// Bare name defers to the system loader search path.
	return append(paths, name)
}

// Load opens the first libwew found among Candidates.
func Load(ctx context.Context) (*Library, error) {
	log := logging.FromContext(ctx)

	var lastErr error
	for _, path := range Candidates() {
		if filepath.IsAbs(path) {
			if _, err := os.Stat(path); err != nil {
				continue
			}
		}
		lib, err := Open(path)
		if err != nil {
			log.Debug().Str("path", path).Err(err).Msg("failed to load libwew")
			lastErr = err
			continue
		}
		log.Debug().Str("path", path).Msg("libwew loaded")
		return lib, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s not found", LibraryName())
	}
	return nil, fmt.Errorf("failed to load libwew: %w", lastErr)
}

// Open loads libwew from path and resolves every entry point.
func Open(path string) (*Library, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, err
	}

	l := &Library{
		path:     path,
		handle:   handle,
		runtimes: make(map[uintptr]uintptr),
		webviews: make(map[uintptr]uintptr),
	}

	symbols := []struct {
		fptr any
		name string
	}{
		{&l.postTaskWithMainThread, "post_task_with_main_thread"},
		{&l.getExitCode, "get_exit_code"},
		{&l.executeSubprocess, "execute_subprocess"},
		{&l.runMessageLoop, "run_message_loop"},
		{&l.quitMessageLoop, "quit_message_loop"},
		{&l.pollMessageLoop, "poll_message_loop"},
		{&l.createRuntime, "create_runtime"},
		{&l.executeRuntime, "execute_runtime"},
		{&l.closeRuntime, "close_runtime"},
		{&l.createWebView, "create_webview"},
		{&l.closeWebView, "close_webview"},
		{&l.mouseClick, "webview_mouse_click"},
		{&l.mouseWheel, "webview_mouse_wheel"},
		{&l.mouseMove, "webview_mouse_move"},
		{&l.keyboard, "webview_keyboard"},
		{&l.touch, "webview_touch"},
		{&l.imeComposition, "webview_ime_composition"},
		{&l.imeSetComposition, "webview_ime_set_composition"},
		{&l.sendMessage, "webview_send_message"},
		{&l.setDevToolsState, "webview_set_devtools_state"},
		{&l.resize, "webview_resize"},
		{&l.getWindowHandle, "webview_get_window_handle"},
		{&l.setFocus, "webview_set_focus"},
		{&l.getGlobalCookieManager, "wew_get_global_cookie_manager"},
		{&l.setCookie, "wew_set_cookie"},
		{&l.deleteCookies, "wew_delete_cookies"},
		{&l.flushCookieStore, "wew_flush_cookie_store"},
		{&l.visitAllCookies, "wew_visit_all_cookies"},
		{&l.visitURLCookies, "wew_visit_url_cookies"},
		{&l.destroyCookieManager, "wew_destroy_cookie_manager"},
	}
	for _, s := range symbols {
		sym, err := lookupSymbol(handle, s.name)
		if err != nil || sym == 0 {
			_ = closeLibrary(handle)
			return nil, fmt.Errorf("%w: %s in %s", ErrSymbolMissing, s.name, path)
		}
		purego.RegisterFunc(s.fptr, sym)
	}

	return l, nil
}

// Path returns the file libwew was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Close unloads the library. It must not be called while a runtime is alive.
func (l *Library) Close() error {
	return closeLibrary(l.handle)
}

func (l *Library) CreateRuntime(settings *RuntimeSettings, handler RuntimeHandler) uintptr {
	t := trampolines()
	runtimeSlots.put(handler.Context, handler)

	ptr := l.createRuntime(settings, cRuntimeHandler{
		onContextInitialized:      t.contextInitialized,
		onScheduleMessagePumpWork: t.schedulePumpWork,
		context:                   handler.Context,
	})
	if ptr == 0 {
		runtimeSlots.drop(handler.Context)
		return 0
	}

	l.mu.Lock()
	l.runtimes[ptr] = handler.Context
	l.mu.Unlock()
	return ptr
}

func (l *Library) ExecuteRuntime(runtime uintptr, args []string) bool {
	strs, ptrs := argv(args)
	defer strs.Release()
	return l.executeRuntime(runtime, int32(len(args)), &ptrs[0])
}

func (l *Library) CloseRuntime(runtime uintptr) {
	l.closeRuntime(runtime)

	l.mu.Lock()
	ctx, ok := l.runtimes[runtime]
	delete(l.runtimes, runtime)
	l.mu.Unlock()
	if ok {
		runtimeSlots.drop(ctx)
	}
}

func (l *Library) CreateWebView(runtime uintptr, url string, settings *WebViewSettings, handler WebViewHandler) uintptr {
	t := trampolines()
	webviewSlots.put(handler.Context, handler)

	var strs Strings
	defer strs.Release()

	ptr := l.createWebView(runtime, strs.Ptr(url), settings, cWebViewHandler{
		onCursor:           t.cursor,
		onStateChange:      t.stateChange,
		onIMERect:          t.imeRect,
		onFrame:            t.frame,
		onTitleChange:      t.titleChange,
		onFullscreenChange: t.fullscreenChange,
		onMessage:          t.message,
		context:            handler.Context,
	})
	if ptr == 0 {
		webviewSlots.drop(handler.Context)
		return 0
	}

	l.mu.Lock()
	l.webviews[ptr] = handler.Context
	l.mu.Unlock()
	return ptr
}

func (l *Library) CloseWebView(webview uintptr) {
	l.closeWebView(webview)

	l.mu.Lock()
	ctx, ok := l.webviews[webview]
	delete(l.webviews, webview)
	l.mu.Unlock()
	if ok {
		webviewSlots.drop(ctx)
	}
}

func (l *Library) MouseClick(webview uintptr, event MouseEvent, button MouseButton, pressed bool) {
	l.mouseClick(webview, event, button, pressed)
}

func (l *Library) MouseWheel(webview uintptr, event MouseEvent, x, y int32) {
	l.mouseWheel(webview, event, x, y)
}

func (l *Library) MouseMove(webview uintptr, event MouseEvent) {
	l.mouseMove(webview, event)
}

func (l *Library) Keyboard(webview uintptr, event KeyEvent) {
	l.keyboard(webview, event)
}

func (l *Library) Touch(webview uintptr, event TouchEvent) {
	l.touch(webview, event)
}

func (l *Library) IMEComposition(webview uintptr, input string) {
	b := CString(input)
	l.imeComposition(webview, uintptr(unsafe.Pointer(&b[0])))
	runtime.KeepAlive(b)
}

func (l *Library) IMESetComposition(webview uintptr, input string, x, y int32) {
	b := CString(input)
	l.imeSetComposition(webview, uintptr(unsafe.Pointer(&b[0])), x, y)
	runtime.KeepAlive(b)
}

func (l *Library) SendMessage(webview uintptr, message string) {
	b := CString(message)
	l.sendMessage(webview, uintptr(unsafe.Pointer(&b[0])))
	runtime.KeepAlive(b)
}

func (l *Library) SetDevToolsState(webview uintptr, open bool) {
	l.setDevToolsState(webview, open)
}

func (l *Library) Resize(webview uintptr, width, height int32) {
	l.resize(webview, width, height)
}

func (l *Library) WindowHandle(webview uintptr) uintptr {
	return l.getWindowHandle(webview)
}

func (l *Library) SetFocus(webview uintptr, enable bool) {
	l.setFocus(webview, enable)
}

func (l *Library) RunMessageLoop() {
	l.runMessageLoop()
}

func (l *Library) QuitMessageLoop() {
	l.quitMessageLoop()
}

func (l *Library) PollMessageLoop() {
	l.pollMessageLoop()
}

func (l *Library) ExecuteSubprocess(args []string) int32 {
	strs, ptrs := argv(args)
	defer strs.Release()
	return l.executeSubprocess(int32(len(args)), &ptrs[0])
}

func (l *Library) ExitCode() int32 {
	return l.getExitCode()
}

func (l *Library) PostTask(callback func(ctx uintptr), ctx uintptr) bool {
	taskSlots.put(ctx, callback)
	if !l.postTaskWithMainThread(trampolines().task, ctx) {
		taskSlots.drop(ctx)
		return false
	}
	return true
}

func (l *Library) NewRequestHandlerFactory(factory RequestHandlerFactory) uintptr {
	t := trampolines()
	factorySlots.put(factory.Context, factory)
	return pinned.keep(&cRequestHandlerFactory{
		request:               t.request,
		destroyRequestHandler: t.destroyRequestHandler,
		context:               factory.Context,
	}, factory.Context)
}

func (l *Library) FreeRequestHandlerFactory(ptr uintptr) {
	if ctx, ok := pinned.release(ptr); ok {
		factorySlots.drop(ctx)
	}
}

func (l *Library) GlobalCookieManager() uintptr {
	return l.getGlobalCookieManager()
}

func (l *Library) SetCookie(manager uintptr, url string, cookie *Cookie) bool {
	b := CString(url)
	ok := l.setCookie(manager, uintptr(unsafe.Pointer(&b[0])), cookie)
	runtime.KeepAlive(b)
	return ok
}

func (l *Library) DeleteCookies(manager uintptr, url string, name *string) bool {
	var strs Strings
	defer strs.Release()

	var namePtr uintptr
	if name != nil {
		namePtr = strs.Ptr(*name)
	}
	return l.deleteCookies(manager, strs.Ptr(url), namePtr)
}

func (l *Library) FlushCookieStore(manager uintptr) bool {
	return l.flushCookieStore(manager)
}

// VisitAllCookies hands visitor to the engine. It returns false without
// retaining the visitor when the engine would drop it unvisited, in which
// case destroy is never called.
func (l *Library) VisitAllCookies(manager uintptr, visitor CookieVisitor) bool {
	if manager == 0 {
		return false
	}
	l.visitAllCookies(manager, l.keepVisitor(visitor))
	return true
}

func (l *Library) VisitURLCookies(manager uintptr, url string, includeHTTPOnly bool, visitor CookieVisitor) bool {
	if manager == 0 {
		return false
	}
	b := CString(url)
	l.visitURLCookies(manager, uintptr(unsafe.Pointer(&b[0])), includeHTTPOnly, l.keepVisitor(visitor))
	runtime.KeepAlive(b)
	return true
}

func (l *Library) DestroyCookieManager(manager uintptr) {
	l.destroyCookieManager(manager)
}

// keepVisitor pins a visitor record until the engine calls its destroy slot.
func (l *Library) keepVisitor(visitor CookieVisitor) uintptr {
	t := trampolines()
	visitorSlots.put(visitor.Context, visitor)
	return pinned.keep(&cCookieVisitor{
		visit:   t.cookieVisit,
		destroy: t.cookieDestroy,
		context: visitor.Context,
	}, visitor.Context)
}
