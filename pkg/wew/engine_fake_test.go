package wew

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/wew/internal/mainthread"
	"github.com/bnema/wew/internal/native"
)

type mouseCall struct {
	kind    string
	event   native.MouseEvent
	button  native.MouseButton
	pressed bool
	dx, dy  int32
}

type storedCookie struct {
	url    string
	cookie native.Cookie
	name   string
	value  string
	domain string
}

// fakeEngine stands in for libwew. It hands out fake pointers, records every
// call and lets tests fire callbacks synchronously.
type fakeEngine struct {
	mu   sync.Mutex
	next uintptr

	failRuntime bool
	failWebView bool

	runtimeHandler  native.RuntimeHandler
	runtimeSettings *native.RuntimeSettings
	createRuntimes  int
	executeArgs     []string
	executed        chan bool
	closedRuntimes  map[uintptr]int

	webviews       map[uintptr]native.WebViewHandler
	webviewURLs    map[uintptr]string
	webviewFactory map[uintptr]uintptr
	closedWebViews map[uintptr]int

	mouse    []mouseCall
	keys     []native.KeyEvent
	touches  []native.TouchEvent
	ime      []string
	messages []string
	devtools []bool
	resizes  [][2]int32
	focus    []bool
	handle   uintptr

	runLoops, quitLoops, polls int

	factories      map[uintptr]native.RequestHandlerFactory
	freedFactories map[uintptr]int

	cookies          []storedCookie
	deleted          []string
	failCookie       bool
	refuseVisit      bool
	managersDestroy  int
	visitorsFinished int

	tasks []func()
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		next:           0x1000,
		executed:       make(chan bool, 4),
		closedRuntimes: make(map[uintptr]int),
		webviews:       make(map[uintptr]native.WebViewHandler),
		webviewURLs:    make(map[uintptr]string),
		webviewFactory: make(map[uintptr]uintptr),
		closedWebViews: make(map[uintptr]int),
		factories:      make(map[uintptr]native.RequestHandlerFactory),
		freedFactories: make(map[uintptr]int),
	}
}

var _ native.Engine = (*fakeEngine)(nil)

func (f *fakeEngine) alloc() uintptr {
	f.next += 0x10
	return f.next
}

func (f *fakeEngine) CreateRuntime(settings *native.RuntimeSettings, handler native.RuntimeHandler) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createRuntimes++
	if f.failRuntime {
		return 0
	}
	f.runtimeHandler = handler
	f.runtimeSettings = settings
	return f.alloc()
}

func (f *fakeEngine) ExecuteRuntime(_ uintptr, args []string) bool {
	f.mu.Lock()
	f.executeArgs = args
	f.mu.Unlock()
	f.executed <- mainthread.IsMain()
	return true
}

func (f *fakeEngine) CloseRuntime(rt uintptr) {
	f.mu.Lock()
	f.closedRuntimes[rt]++
	f.mu.Unlock()
}

func (f *fakeEngine) CreateWebView(_ uintptr, url string, settings *native.WebViewSettings, handler native.WebViewHandler) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWebView {
		return 0
	}
	p := f.alloc()
	f.webviews[p] = handler
	f.webviewURLs[p] = url
	f.webviewFactory[p] = settings.RequestHandlerFactory
	return p
}

func (f *fakeEngine) CloseWebView(wv uintptr) {
	f.mu.Lock()
	f.closedWebViews[wv]++
	f.mu.Unlock()
}

func (f *fakeEngine) MouseClick(_ uintptr, ev native.MouseEvent, b native.MouseButton, pressed bool) {
	f.mouse = append(f.mouse, mouseCall{kind: "click", event: ev, button: b, pressed: pressed})
}

func (f *fakeEngine) MouseWheel(_ uintptr, ev native.MouseEvent, x, y int32) {
	f.mouse = append(f.mouse, mouseCall{kind: "wheel", event: ev, dx: x, dy: y})
}

func (f *fakeEngine) MouseMove(_ uintptr, ev native.MouseEvent) {
	f.mouse = append(f.mouse, mouseCall{kind: "move", event: ev})
}

func (f *fakeEngine) Keyboard(_ uintptr, ev native.KeyEvent) { f.keys = append(f.keys, ev) }
func (f *fakeEngine) Touch(_ uintptr, ev native.TouchEvent)  { f.touches = append(f.touches, ev) }

func (f *fakeEngine) IMEComposition(_ uintptr, input string) {
	f.ime = append(f.ime, "commit:"+input)
}

func (f *fakeEngine) IMESetComposition(_ uintptr, input string, _, _ int32) {
	f.ime = append(f.ime, "preedit:"+input)
}

func (f *fakeEngine) SendMessage(_ uintptr, m string)       { f.messages = append(f.messages, m) }
func (f *fakeEngine) SetDevToolsState(_ uintptr, open bool) { f.devtools = append(f.devtools, open) }
func (f *fakeEngine) Resize(_ uintptr, w, h int32)          { f.resizes = append(f.resizes, [2]int32{w, h}) }
func (f *fakeEngine) WindowHandle(uintptr) uintptr          { return f.handle }
func (f *fakeEngine) SetFocus(_ uintptr, enable bool)       { f.focus = append(f.focus, enable) }
func (f *fakeEngine) RunMessageLoop()                       { f.runLoops++ }
func (f *fakeEngine) QuitMessageLoop()                      { f.quitLoops++ }
func (f *fakeEngine) PollMessageLoop()                      { f.polls++ }
func (f *fakeEngine) ExecuteSubprocess([]string) int32      { return 0 }
func (f *fakeEngine) ExitCode() int32                       { return 0 }

func (f *fakeEngine) PostTask(callback func(uintptr), ctx uintptr) bool {
	f.tasks = append(f.tasks, func() { callback(ctx) })
	return true
}

func (f *fakeEngine) NewRequestHandlerFactory(factory native.RequestHandlerFactory) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.alloc()
	f.factories[p] = factory
	return p
}

func (f *fakeEngine) FreeRequestHandlerFactory(ptr uintptr) {
	f.mu.Lock()
	f.freedFactories[ptr]++
	f.mu.Unlock()
}

func (f *fakeEngine) GlobalCookieManager() uintptr { return 0xc00c1e }

func (f *fakeEngine) SetCookie(_ uintptr, url string, c *native.Cookie) bool {
	if f.failCookie {
		return false
	}
	f.cookies = append(f.cookies, storedCookie{
		url:    url,
		cookie: *c,
		name:   native.GoString(c.Name),
		value:  native.GoString(c.Value),
		domain: native.GoString(c.Domain),
	})
	return true
}

func (f *fakeEngine) DeleteCookies(_ uintptr, url string, name *string) bool {
	entry := url
	if name != nil {
		entry += "#" + *name
	}
	f.deleted = append(f.deleted, entry)
	return !f.failCookie
}

func (f *fakeEngine) FlushCookieStore(uintptr) bool { return !f.failCookie }

func (f *fakeEngine) VisitAllCookies(_ uintptr, v native.CookieVisitor) bool {
	return f.visit(v)
}

func (f *fakeEngine) VisitURLCookies(_ uintptr, url string, _ bool, v native.CookieVisitor) bool {
	return f.visit(v)
}

func (f *fakeEngine) visit(v native.CookieVisitor) bool {
	if f.refuseVisit {
		return false
	}
	var strs native.Strings
	defer strs.Release()

	total := int32(len(f.cookies))
	for i, sc := range f.cookies {
		nc := sc.cookie
		nc.Name = strs.Ptr(sc.name)
		nc.Value = strs.Ptr(sc.value)
		nc.Domain = 0
		if sc.domain != "" {
			nc.Domain = strs.Ptr(sc.domain)
		}
		nc.Path = 0
		var del bool
		if !v.Visit(&nc, int32(i), total, &del, v.Context) {
			break
		}
	}
	v.Destroy(v.Context)
	f.visitorsFinished++
	return true
}

func (f *fakeEngine) DestroyCookieManager(uintptr) { f.managersDestroy++ }

// fireInitialized simulates the engine context-initialized callback.
func (f *fakeEngine) fireInitialized() {
	h := f.runtimeHandler
	h.OnContextInitialized(h.Context)
}

func (f *fakeEngine) webview(t *testing.T, p uintptr) native.WebViewHandler {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.webviews[p]
	require.True(t, ok, "unknown webview %#x", p)
	return h
}

func (f *fakeEngine) fireState(t *testing.T, p uintptr, s WebViewState) {
	h := f.webview(t, p)
	h.OnStateChange(s.native(), h.Context)
}
