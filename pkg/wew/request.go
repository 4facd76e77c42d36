package wew

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/native"
)

// Request describes a request for a registered custom scheme.
type Request struct {
	URL      string
	Method   string
	Referrer string
}

// Response is the head of a custom scheme response.
type Response struct {
	StatusCode    int
	ContentLength uint64
	// MimeType is truncated to 254 bytes.
	MimeType string
}

var notFound = Response{StatusCode: 404, MimeType: "text/plain"}

const maxEmptyReads = 100

// RequestHandler serves one custom scheme request. Methods are called on an
// engine IO thread, one at a time.
//
// Read follows io.Reader: io.EOF ends the response and any other error
// aborts it. A read of 0 bytes with no error is retried; too many in a row
// abort the response with io.ErrNoProgress. A handler that also implements
// io.Closer is closed when the engine destroys it.
type RequestHandler interface {
	Open() bool
	// Response reports the response head. Returning false answers 404.
	Response() (Response, bool)
	Skip(n uint64) (uint64, error)
	io.Reader
	Cancel()
}

// RequestHandlerFactory creates a handler per request, or returns nil to
// let the engine fall back to its default handling.
type RequestHandlerFactory interface {
	Request(req *Request) RequestHandler
}

// RequestHandlerFactoryFunc adapts a function to RequestHandlerFactory.
type RequestHandlerFactoryFunc func(req *Request) RequestHandler

func (f RequestHandlerFactoryFunc) Request(req *Request) RequestHandler { return f(req) }

type factoryCore struct {
	engine  native.Engine
	factory RequestHandlerFactory
	key     uintptr
	ptr     handle.Pointer
	refs    atomic.Int32
}

func (c *factoryCore) acquire() *factoryCore {
	c.refs.Add(1)
	return c
}

// release frees the engine record once the host and every runtime or
// webview using the factory have let go of it.
func (c *factoryCore) release() {
	if c.refs.Add(-1) != 0 {
		return
	}
	c.engine.FreeRequestHandlerFactory(c.ptr.Raw())
	contexts.Free(c.key)
}

// CustomRequestHandlerFactory is a RequestHandlerFactory registered with the
// engine. Attach it to a runtime through CustomSchemeAttributes or to single
// webviews through WebViewAttributesBuilder.WithRequestHandlerFactory.
type CustomRequestHandlerFactory struct {
	core   *factoryCore
	closed atomic.Bool
}

// NewCustomRequestHandlerFactory registers f with the engine.
func NewCustomRequestHandlerFactory(f RequestHandlerFactory) (*CustomRequestHandlerFactory, error) {
	e, err := currentEngine()
	if err != nil {
		return nil, err
	}

	core := &factoryCore{engine: e, factory: f}
	core.key = contexts.Box(core)
	ptr := e.NewRequestHandlerFactory(native.RequestHandlerFactory{
		Request: onCreateRequestHandler,
		Handler: native.RequestHandler{
			Open:        onRequestOpen,
			Skip:        onRequestSkip,
			Read:        onRequestRead,
			GetResponse: onRequestResponse,
			Cancel:      onRequestCancel,
			Destroy:     onRequestDestroy,
		},
		Context: core.key,
	})
	core.ptr = handle.NewPointer(ptr)
	core.refs.Store(1)
	return &CustomRequestHandlerFactory{core: core}, nil
}

func (f *CustomRequestHandlerFactory) raw() uintptr {
	return f.core.ptr.Raw()
}

func (f *CustomRequestHandlerFactory) sharedRef() *factoryCore {
	return f.core.acquire()
}

// Close releases the host reference. The engine record stays alive while a
// runtime or webview still uses it.
func (f *CustomRequestHandlerFactory) Close() {
	if f.closed.Swap(true) {
		return
	}
	f.core.release()
}

// CustomSchemeAttributes registers a scheme for the whole runtime.
type CustomSchemeAttributes struct {
	name    string
	domain  string
	factory *CustomRequestHandlerFactory
}

// NewCustomSchemeAttributes panics when name or domain holds a NUL byte.
func NewCustomSchemeAttributes(name, domain string, factory *CustomRequestHandlerFactory) *CustomSchemeAttributes {
	return &CustomSchemeAttributes{
		name:    mustNoNUL("scheme name", name),
		domain:  mustNoNUL("scheme domain", domain),
		factory: factory,
	}
}

func (a *CustomSchemeAttributes) Name() string   { return a.name }
func (a *CustomSchemeAttributes) Domain() string { return a.domain }

type requestContext struct {
	handler RequestHandler
}

func onCreateRequestHandler(url, method, referrer uintptr, ctx uintptr) (uintptr, bool) {
	core, ok := handle.LoadAs[*factoryCore](contexts, ctx)
	if !ok {
		return 0, false
	}
	req := &Request{
		URL:      native.GoString(url),
		Method:   native.GoString(method),
		Referrer: native.GoString(referrer),
	}

	var h RequestHandler
	guard("request", func() { h = core.factory.Request(req) })
	if h == nil {
		return 0, false
	}
	return contexts.Box(&requestContext{handler: h}), true
}

func loadRequest(ctx uintptr) (RequestHandler, bool) {
	rc, ok := handle.LoadAs[*requestContext](contexts, ctx)
	if !ok {
		return nil, false
	}
	return rc.handler, true
}

func onRequestOpen(ctx uintptr) bool {
	h, ok := loadRequest(ctx)
	if !ok {
		return false
	}
	var opened bool
	guard("request open", func() { opened = h.Open() })
	return opened
}

func onRequestSkip(size uint64, ctx uintptr) (int32, bool) {
	h, ok := loadRequest(ctx)
	if !ok {
		return -2, false
	}
	var (
		n   uint64
		err error
	)
	guard("request skip", func() { n, err = h.Skip(size) })
	if err != nil {
		log().Debug().Err(err).Msg("custom scheme skip failed")
		return -2, false
	}
	return int32(n), true
}

func onRequestRead(buf []byte, ctx uintptr) (int32, bool) {
	h, ok := loadRequest(ctx)
	if !ok {
		return -2, false
	}
	var (
		n   int
		err error
	)
	for i := 0; n == 0 && err == nil; i++ {
		if i == maxEmptyReads {
			err = io.ErrNoProgress
			break
		}
		guard("request read", func() { n, err = h.Read(buf) })
	}
	switch {
	case n > 0:
		return int32(n), true
	case errors.Is(err, io.EOF):
		return 0, false
	default:
		log().Debug().Err(err).Msg("custom scheme read failed")
		return -2, false
	}
}

func onRequestResponse(ctx uintptr) (int32, uint64, string) {
	resp := notFound
	if h, ok := loadRequest(ctx); ok {
		guard("request response", func() {
			if r, ok := h.Response(); ok {
				resp = r
			}
		})
	}
	return int32(resp.StatusCode), resp.ContentLength, resp.MimeType
}

func onRequestCancel(ctx uintptr) {
	if h, ok := loadRequest(ctx); ok {
		guard("request cancel", h.Cancel)
	}
}

func onRequestDestroy(ctx uintptr) {
	h, ok := loadRequest(ctx)
	if !ok || !contexts.Free(ctx) {
		return
	}
	if c, ok := h.(io.Closer); ok {
		guard("request close", func() { _ = c.Close() })
	}
}
