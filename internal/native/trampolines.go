package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// purego can only mint a bounded number of callbacks per process, so every
// slot gets exactly one C function pointer. The pointer dispatches through the
// context key to the handler registered for it.

type slotTable[T any] struct {
	mu sync.RWMutex
	m  map[uintptr]T
}

func newSlotTable[T any]() *slotTable[T] {
	return &slotTable[T]{m: make(map[uintptr]T)}
}

func (t *slotTable[T]) put(key uintptr, v T) {
	t.mu.Lock()
	t.m[key] = v
	t.mu.Unlock()
}

func (t *slotTable[T]) get(key uintptr) (T, bool) {
	t.mu.RLock()
	v, ok := t.m[key]
	t.mu.RUnlock()
	return v, ok
}

func (t *slotTable[T]) drop(key uintptr) (T, bool) {
	t.mu.Lock()
	v, ok := t.m[key]
	delete(t.m, key)
	t.mu.Unlock()
	return v, ok
}

var (
	runtimeSlots = newSlotTable[RuntimeHandler]()
	webviewSlots = newSlotTable[WebViewHandler]()
	factorySlots = newSlotTable[RequestHandlerFactory]()
	handlerSlots = newSlotTable[RequestHandler]()
	visitorSlots = newSlotTable[CookieVisitor]()
	taskSlots    = newSlotTable[func(uintptr)]()
)

// pinnedRecords keeps records the engine retains past the call that received
// them. Records are indexed by address and by context key.
type pinnedRecords struct {
	mu     sync.Mutex
	byAddr map[uintptr]*pinnedRecord
	byCtx  map[uintptr]uintptr
}

type pinnedRecord struct {
	pinner *runtime.Pinner
	value  any
	ctx    uintptr
}

var pinned = &pinnedRecords{
	byAddr: make(map[uintptr]*pinnedRecord),
	byCtx:  make(map[uintptr]uintptr),
}

func (p *pinnedRecords) keep(v any, ctx uintptr) uintptr {
	pin := &runtime.Pinner{}
	pin.Pin(v)

	var addr uintptr
	switch r := v.(type) {
	case *cRequestHandlerFactory:
		addr = uintptr(unsafe.Pointer(r))
	case *cRequestHandler:
		addr = uintptr(unsafe.Pointer(r))
	case *cCookieVisitor:
		addr = uintptr(unsafe.Pointer(r))
	default:
		pin.Unpin()
		panic("native: unsupported pinned record")
	}

	p.mu.Lock()
	p.byAddr[addr] = &pinnedRecord{pinner: pin, value: v, ctx: ctx}
	p.byCtx[ctx] = addr
	p.mu.Unlock()
	return addr
}

func (p *pinnedRecords) release(addr uintptr) (uintptr, bool) {
	p.mu.Lock()
	rec, ok := p.byAddr[addr]
	if ok {
		delete(p.byAddr, addr)
		if p.byCtx[rec.ctx] == addr {
			delete(p.byCtx, rec.ctx)
		}
	}
	p.mu.Unlock()
	if !ok {
		return 0, false
	}
	rec.pinner.Unpin()
	return rec.ctx, true
}

func (p *pinnedRecords) releaseByContext(ctx uintptr) bool {
	p.mu.Lock()
	addr, ok := p.byCtx[ctx]
	p.mu.Unlock()
	if !ok {
		return false
	}
	_, ok = p.release(addr)
	return ok
}

type trampolineSet struct {
	contextInitialized    uintptr
	schedulePumpWork      uintptr
	cursor                uintptr
	stateChange           uintptr
	imeRect               uintptr
	frame                 uintptr
	titleChange           uintptr
	fullscreenChange      uintptr
	message               uintptr
	request               uintptr
	destroyRequestHandler uintptr
	open                  uintptr
	skip                  uintptr
	read                  uintptr
	getResponse           uintptr
	cancel                uintptr
	destroy               uintptr
	cookieVisit           uintptr
	cookieDestroy         uintptr
	task                  uintptr
}

var (
	trampolinesOnce sync.Once
	trampolineFns   trampolineSet
)

func trampolines() *trampolineSet {
	trampolinesOnce.Do(func() {
		trampolineFns = trampolineSet{
			contextInitialized:    purego.NewCallback(onContextInitialized),
			schedulePumpWork:      purego.NewCallback(onScheduleMessagePumpWork),
			cursor:                purego.NewCallback(onCursor),
			stateChange:           purego.NewCallback(onStateChange),
			imeRect:               purego.NewCallback(onIMERect),
			frame:                 purego.NewCallback(onFrame),
			titleChange:           purego.NewCallback(onTitleChange),
			fullscreenChange:      purego.NewCallback(onFullscreenChange),
			message:               purego.NewCallback(onMessage),
			request:               purego.NewCallback(onRequest),
			destroyRequestHandler: purego.NewCallback(onDestroyRequestHandler),
			open:                  purego.NewCallback(onOpen),
			skip:                  purego.NewCallback(onSkip),
			read:                  purego.NewCallback(onRead),
			getResponse:           purego.NewCallback(onGetResponse),
			cancel:                purego.NewCallback(onCancel),
			destroy:               purego.NewCallback(onDestroy),
			cookieVisit:           purego.NewCallback(onCookieVisit),
			cookieDestroy:         purego.NewCallback(onCookieDestroy),
			task:                  purego.NewCallback(onTask),
		}
	})
	return &trampolineFns
}

// Integer arguments arrive in full registers whose upper bits are
// unspecified for C int, enum and bool, so they are narrowed explicitly.

func cInt(v uintptr) int32 { return int32(uint32(v)) }
func cBool(v uintptr) bool { return uint8(v) != 0 }

func goBool(v bool) uintptr {
	if v {
		return 1
	}
	return 0
}

func onContextInitialized(ctx uintptr) uintptr {
	if h, ok := runtimeSlots.get(ctx); ok && h.OnContextInitialized != nil {
		h.OnContextInitialized(ctx)
	}
	return 0
}

func onScheduleMessagePumpWork(delay int64, ctx uintptr) uintptr {
	if h, ok := runtimeSlots.get(ctx); ok && h.OnScheduleMessagePumpWork != nil {
		h.OnScheduleMessagePumpWork(delay, ctx)
	}
	return 0
}

func onCursor(cursor, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnCursor != nil {
		h.OnCursor(cInt(cursor), ctx)
	}
	return 0
}

func onStateChange(state, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnStateChange != nil {
		h.OnStateChange(cInt(state), ctx)
	}
	return 0
}

func dispatchIMERect(rect Rect, ctx uintptr) {
	if h, ok := webviewSlots.get(ctx); ok && h.OnIMERect != nil {
		h.OnIMERect(rect, ctx)
	}
}

func onFrame(buf uintptr, rect *Rect, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnFrame != nil {
		h.OnFrame(buf, rect, ctx)
	}
	return 0
}

func onTitleChange(title, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnTitleChange != nil {
		h.OnTitleChange(title, ctx)
	}
	return 0
}

func onFullscreenChange(fullscreen, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnFullscreenChange != nil {
		h.OnFullscreenChange(cBool(fullscreen), ctx)
	}
	return 0
}

func onMessage(message, ctx uintptr) uintptr {
	if h, ok := webviewSlots.get(ctx); ok && h.OnMessage != nil {
		h.OnMessage(message, ctx)
	}
	return 0
}

func onRequest(req *Request, ctx uintptr) uintptr {
	f, ok := factorySlots.get(ctx)
	if !ok || req == nil || f.Request == nil {
		return 0
	}
	handlerCtx, ok := f.Request(req.URL, req.Method, req.Referrer, ctx)
	if !ok {
		return 0
	}

	t := trampolines()
	handlerSlots.put(handlerCtx, f.Handler)
	return pinned.keep(&cRequestHandler{
		open:        t.open,
		skip:        t.skip,
		read:        t.read,
		getResponse: t.getResponse,
		cancel:      t.cancel,
		destroy:     t.destroy,
		context:     handlerCtx,
	}, handlerCtx)
}

// onDestroyRequestHandler frees the record returned by onRequest. The handler
// context itself is released by onDestroy.
func onDestroyRequestHandler(record uintptr) uintptr {
	pinned.release(record)
	return 0
}

func onOpen(ctx uintptr) uintptr {
	if h, ok := handlerSlots.get(ctx); ok && h.Open != nil {
		return goBool(h.Open(ctx))
	}
	return 0
}

func onSkip(size uintptr, cursor *int32, ctx uintptr) uintptr {
	h, ok := handlerSlots.get(ctx)
	if !ok || h.Skip == nil {
		if cursor != nil {
			*cursor = -2
		}
		return 0
	}
	n, more := h.Skip(uint64(size), ctx)
	if cursor != nil {
		*cursor = n
	}
	return goBool(more)
}

func onRead(buf, size uintptr, cursor *int32, ctx uintptr) uintptr {
	h, ok := handlerSlots.get(ctx)
	if !ok || h.Read == nil {
		if cursor != nil {
			*cursor = -2
		}
		return 0
	}
	n, more := h.Read(Bytes(buf, int(size)), ctx)
	if cursor != nil {
		*cursor = n
	}
	return goBool(more)
}

func onGetResponse(resp *Response, ctx uintptr) uintptr {
	h, ok := handlerSlots.get(ctx)
	if !ok || resp == nil || h.GetResponse == nil {
		return 0
	}
	status, length, mime := h.GetResponse(ctx)
	resp.StatusCode = status
	resp.ContentLength = length
	WriteMimeType(resp.MimeType, mime)
	return 0
}

// WriteMimeType copies mime into the engine buffer at dst, truncated to
// MimeTypeCapacity-1 bytes and NUL-terminated.
func WriteMimeType(dst uintptr, mime string) {
	buf := Bytes(dst, MimeTypeCapacity)
	if buf == nil {
		return
	}
	n := copy(buf[:MimeTypeCapacity-1], mime)
	buf[n] = 0
}

func onCancel(ctx uintptr) uintptr {
	if h, ok := handlerSlots.get(ctx); ok && h.Cancel != nil {
		h.Cancel(ctx)
	}
	return 0
}

func onDestroy(ctx uintptr) uintptr {
	if h, ok := handlerSlots.drop(ctx); ok && h.Destroy != nil {
		h.Destroy(ctx)
	}
	return 0
}

func onCookieVisit(cookie *Cookie, count, total uintptr, deleteCookie *bool, ctx uintptr) uintptr {
	v, ok := visitorSlots.get(ctx)
	if !ok || cookie == nil || v.Visit == nil {
		return 0
	}
	return goBool(v.Visit(cookie, cInt(count), cInt(total), deleteCookie, ctx))
}

func onCookieDestroy(ctx uintptr) uintptr {
	if v, ok := visitorSlots.drop(ctx); ok && v.Destroy != nil {
		v.Destroy(ctx)
	}
	pinned.releaseByContext(ctx)
	return 0
}

func onTask(ctx uintptr) uintptr {
	if fn, ok := taskSlots.drop(ctx); ok && fn != nil {
		fn(ctx)
	}
	return 0
}
