package wew

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/native"
)

// SameSite is the cookie same-site policy.
type SameSite int32

const (
	SameSiteUnspecified SameSite = iota
	SameSiteNoRestriction
	SameSiteLax
	SameSiteStrict
)

// Priority is the cookie eviction priority.
type Priority int32

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// Cookie is a browser cookie. A nil Domain or Path lets the engine derive it
// from the URL; a nil Expires makes a session cookie. Expires is in Unix
// seconds.
type Cookie struct {
	Name     string
	Value    string
	Domain   *string
	Path     *string
	Secure   bool
	HTTPOnly bool
	Expires  *int64
	SameSite SameSite
	Priority Priority
}

// NewCookie returns a session cookie with medium priority.
func NewCookie(name, value string) Cookie {
	return Cookie{Name: name, Value: value, Priority: PriorityMedium}
}

// WithDomain restricts the cookie to domain and its subdomains.
func (c Cookie) WithDomain(domain string) Cookie {
	c.Domain = &domain
	return c
}

// WithPath restricts the cookie to URLs under path.
func (c Cookie) WithPath(path string) Cookie {
	c.Path = &path
	return c
}

// WithSecure limits the cookie to secure connections.
func (c Cookie) WithSecure(secure bool) Cookie {
	c.Secure = secure
	return c
}

// WithHTTPOnly hides the cookie from scripts.
func (c Cookie) WithHTTPOnly(httpOnly bool) Cookie {
	c.HTTPOnly = httpOnly
	return c
}

// ExpiresAt sets the expiry time.
func (c Cookie) ExpiresAt(t time.Time) Cookie {
	ts := t.Unix()
	c.Expires = &ts
	return c
}

// ExpiresIn sets the expiry relative to now.
func (c Cookie) ExpiresIn(d time.Duration) Cookie {
	return c.ExpiresAt(time.Now().Add(d))
}

// WithSameSite sets the cross-site policy.
func (c Cookie) WithSameSite(s SameSite) Cookie {
	c.SameSite = s
	return c
}

// WithPriority sets the eviction priority.
func (c Cookie) WithPriority(p Priority) Cookie {
	c.Priority = p
	return c
}

func cookieFromNative(nc *native.Cookie) Cookie {
	c := Cookie{
		Name:     native.GoString(nc.Name),
		Value:    native.GoString(nc.Value),
		Secure:   nc.Secure,
		HTTPOnly: nc.HTTPOnly,
		SameSite: SameSiteUnspecified,
		Priority: PriorityMedium,
	}
	if nc.Domain != 0 {
		d := native.GoString(nc.Domain)
		c.Domain = &d
	}
	if nc.Path != 0 {
		p := native.GoString(nc.Path)
		c.Path = &p
	}
	if nc.HasExpires {
		e := nc.Expires
		c.Expires = &e
	}
	if nc.SameSite >= int32(SameSiteUnspecified) && nc.SameSite <= int32(SameSiteStrict) {
		c.SameSite = SameSite(nc.SameSite)
	}
	if nc.Priority >= int32(PriorityLow) && nc.Priority <= int32(PriorityHigh) {
		c.Priority = Priority(nc.Priority)
	}
	return c
}

// CookieManager manages the cookies of the engine's global cookie store.
type CookieManager struct {
	engine native.Engine
	ptr    handle.Pointer
	closed atomic.Bool
	now    func() time.Time
}

// GlobalCookieManager returns the manager of the global cookie store.
func GlobalCookieManager() (*CookieManager, error) {
	e, err := currentEngine()
	if err != nil {
		return nil, err
	}
	ptr := e.GlobalCookieManager()
	if ptr == 0 {
		return nil, ErrEngineUnavailable
	}
	return &CookieManager{engine: e, ptr: handle.NewPointer(ptr), now: time.Now}, nil
}

// SetCookie stores c for url.
func (m *CookieManager) SetCookie(url string, c Cookie) error {
	if m.closed.Load() {
		return ErrCookieManagerClosed
	}
	switch {
	case native.HasNUL(url):
		return ErrInvalidURL
	case native.HasNUL(c.Name):
		return ErrInvalidCookieName
	case native.HasNUL(c.Value):
		return ErrInvalidCookieValue
	case c.Domain != nil && native.HasNUL(*c.Domain):
		return ErrInvalidCookieDomain
	case c.Path != nil && native.HasNUL(*c.Path):
		return ErrInvalidCookiePath
	}

	var strs native.Strings
	defer strs.Release()

	now := m.now().Unix()
	nc := &native.Cookie{
		Name:       strs.Ptr(c.Name),
		Value:      strs.Ptr(c.Value),
		Secure:     c.Secure,
		HTTPOnly:   c.HTTPOnly,
		Creation:   now,
		LastAccess: now,
		SameSite:   int32(c.SameSite),
		Priority:   int32(c.Priority),
	}
	if c.Domain != nil {
		nc.Domain = strs.Ptr(*c.Domain)
	}
	if c.Path != nil {
		nc.Path = strs.Ptr(*c.Path)
	}
	if c.Expires != nil {
		nc.Expires = *c.Expires
		nc.HasExpires = true
	}

	if !m.engine.SetCookie(m.ptr.Raw(), url, nc) {
		return ErrSetCookieFailed
	}
	return nil
}

// DeleteCookies deletes the cookie called name for url, or every cookie for
// url when name is empty. An empty url deletes everything.
func (m *CookieManager) DeleteCookies(url, name string) error {
	if m.closed.Load() {
		return ErrCookieManagerClosed
	}
	if native.HasNUL(url) {
		return ErrInvalidURL
	}
	if native.HasNUL(name) {
		return ErrInvalidCookieName
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	if !m.engine.DeleteCookies(m.ptr.Raw(), url, namePtr) {
		return ErrDeleteCookieFailed
	}
	return nil
}

// FlushStore writes pending cookie changes to disk.
func (m *CookieManager) FlushStore() error {
	if m.closed.Load() {
		return ErrCookieManagerClosed
	}
	if !m.engine.FlushCookieStore(m.ptr.Raw()) {
		return ErrFlushStoreFailed
	}
	return nil
}

// CookieVisitFunc receives each cookie. Returning false stops the visit.
type CookieVisitFunc func(c Cookie) bool

type cookieVisit struct {
	mu   sync.Mutex
	fn   CookieVisitFunc
	done chan struct{}
}

func (m *CookieManager) newVisitor(fn CookieVisitFunc) (native.CookieVisitor, *cookieVisit) {
	v := &cookieVisit{fn: fn, done: make(chan struct{})}
	return native.CookieVisitor{
		Visit:   onCookieVisit,
		Destroy: onCookieVisitorDestroy,
		Context: contexts.Box(v),
	}, v
}

// startVisit frees the visitor context itself when the engine refused the
// visitor, since no destroy call will follow.
func startVisit(nv native.CookieVisitor, v *cookieVisit, handedOver bool) (<-chan struct{}, error) {
	if !handedOver {
		contexts.Free(nv.Context)
		return nil, ErrVisitCookiesFailed
	}
	return v.done, nil
}

// VisitAllCookies calls fn for every stored cookie. The visit runs
// asynchronously on an engine thread; the returned channel is closed once
// the engine is done with fn. ErrVisitCookiesFailed means fn is never called.
func (m *CookieManager) VisitAllCookies(fn CookieVisitFunc) (<-chan struct{}, error) {
	if m.closed.Load() {
		return nil, ErrCookieManagerClosed
	}
	nv, v := m.newVisitor(fn)
	return startVisit(nv, v, m.engine.VisitAllCookies(m.ptr.Raw(), nv))
}

// VisitURLCookies calls fn for the cookies sent with requests to url.
// HTTP-only cookies are included when includeHTTPOnly is set.
func (m *CookieManager) VisitURLCookies(url string, includeHTTPOnly bool, fn CookieVisitFunc) (<-chan struct{}, error) {
	if m.closed.Load() {
		return nil, ErrCookieManagerClosed
	}
	if url == "" || native.HasNUL(url) {
		return nil, ErrInvalidURL
	}
	nv, v := m.newVisitor(fn)
	return startVisit(nv, v, m.engine.VisitURLCookies(m.ptr.Raw(), url, includeHTTPOnly, nv))
}

// Cookies collects every stored cookie, or those for url when url is not
// empty, waiting for the visit to finish or ctx to end. When ctx ends first
// the visitor stays registered until the engine destroys it.
func (m *CookieManager) Cookies(ctx context.Context, url string) ([]Cookie, error) {
	var (
		mu  sync.Mutex
		out []Cookie
	)
	collect := func(c Cookie) bool {
		mu.Lock()
		out = append(out, c)
		mu.Unlock()
		return true
	}

	var (
		done <-chan struct{}
		err  error
	)
	if url == "" {
		done, err = m.VisitAllCookies(collect)
	} else {
		done, err = m.VisitURLCookies(url, true, collect)
	}
	if err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

// Close releases the manager.
func (m *CookieManager) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.engine.DestroyCookieManager(m.ptr.Raw())
}

func onCookieVisit(nc *native.Cookie, _, _ int32, _ *bool, ctx uintptr) bool {
	v, ok := handle.LoadAs[*cookieVisit](contexts, ctx)
	if !ok || nc == nil {
		return false
	}
	c := cookieFromNative(nc)

	v.mu.Lock()
	defer v.mu.Unlock()
	cont := false
	guard("cookie visit", func() { cont = v.fn(c) })
	return cont
}

func onCookieVisitorDestroy(ctx uintptr) {
	v, ok := handle.LoadAs[*cookieVisit](contexts, ctx)
	if !ok || !contexts.Free(ctx) {
		return
	}
	close(v.done)
}
