package wew

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieManager(t *testing.T) (*fakeEngine, *CookieManager) {
	t.Helper()
	f := installFake(t)
	m, err := GlobalCookieManager()
	require.NoError(t, err)
	m.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	t.Cleanup(m.Close)
	return f, m
}

func TestSetCookieFields(t *testing.T) {
	f, m := cookieManager(t)
	expiry := time.Unix(1_800_000_000, 0)

	c := NewCookie("sid", "abc").
		WithDomain("example.com").
		WithPath("/app").
		WithSecure(true).
		WithHTTPOnly(true).
		WithSameSite(SameSiteLax).
		ExpiresAt(expiry)
	require.NoError(t, m.SetCookie("https://example.com/app", c))

	require.Len(t, f.cookies, 1)
	got := f.cookies[0]
	assert.Equal(t, "https://example.com/app", got.url)
	assert.Equal(t, "sid", got.name)
	assert.Equal(t, "abc", got.value)
	assert.Equal(t, "example.com", got.domain)
	assert.True(t, got.cookie.Secure)
	assert.True(t, got.cookie.HTTPOnly)
	assert.True(t, got.cookie.HasExpires)
	assert.Equal(t, expiry.Unix(), got.cookie.Expires)
	assert.Equal(t, int64(1_700_000_000), got.cookie.Creation)
	assert.Equal(t, int32(SameSiteLax), got.cookie.SameSite)
	assert.Equal(t, int32(PriorityMedium), got.cookie.Priority)
}

func TestSetCookieRejectsNUL(t *testing.T) {
	f, m := cookieManager(t)

	tests := []struct {
		name string
		url  string
		c    Cookie
		err  error
	}{
		{"url", "https://a\x00b", NewCookie("a", "b"), ErrInvalidURL},
		{"name", "https://a", NewCookie("a\x00", "b"), ErrInvalidCookieName},
		{"value", "https://a", NewCookie("a", "\x00"), ErrInvalidCookieValue},
		{"domain", "https://a", NewCookie("a", "b").WithDomain("x\x00"), ErrInvalidCookieDomain},
		{"path", "https://a", NewCookie("a", "b").WithPath("/\x00"), ErrInvalidCookiePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, m.SetCookie(tt.url, tt.c), tt.err)
		})
	}
	assert.Empty(t, f.cookies)
}

func TestCookieEngineFailures(t *testing.T) {
	f, m := cookieManager(t)
	f.failCookie = true

	assert.ErrorIs(t, m.SetCookie("https://a", NewCookie("a", "b")), ErrSetCookieFailed)
	assert.ErrorIs(t, m.DeleteCookies("https://a", ""), ErrDeleteCookieFailed)
	assert.ErrorIs(t, m.FlushStore(), ErrFlushStoreFailed)
}

func TestDeleteCookies(t *testing.T) {
	f, m := cookieManager(t)

	require.NoError(t, m.DeleteCookies("https://a", "sid"))
	require.NoError(t, m.DeleteCookies("https://a", ""))
	require.NoError(t, m.DeleteCookies("", ""))
	assert.Equal(t, []string{"https://a#sid", "https://a", ""}, f.deleted)

	assert.ErrorIs(t, m.DeleteCookies("https://a", "s\x00"), ErrInvalidCookieName)
}

func TestCookiesCollectsVisit(t *testing.T) {
	f, m := cookieManager(t)
	require.NoError(t, m.SetCookie("https://a", NewCookie("one", "1").WithDomain("a")))
	require.NoError(t, m.SetCookie("https://a", NewCookie("two", "2").WithPriority(PriorityHigh)))

	cookies, err := m.Cookies(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "one", cookies[0].Name)
	require.NotNil(t, cookies[0].Domain)
	assert.Equal(t, "a", *cookies[0].Domain)
	assert.Nil(t, cookies[0].Path)
	assert.Nil(t, cookies[0].Expires)
	assert.Equal(t, PriorityHigh, cookies[1].Priority)

	cookies, err = m.Cookies(context.Background(), "https://a")
	require.NoError(t, err)
	assert.Len(t, cookies, 2)
	assert.Equal(t, 2, f.visitorsFinished)
}

func TestVisitStopsEarly(t *testing.T) {
	_, m := cookieManager(t)
	require.NoError(t, m.SetCookie("https://a", NewCookie("one", "1")))
	require.NoError(t, m.SetCookie("https://a", NewCookie("two", "2")))

	var names []string
	done, err := m.VisitAllCookies(func(c Cookie) bool {
		names = append(names, c.Name)
		return false
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("visitor was not destroyed")
	}
	assert.Equal(t, []string{"one"}, names)
}

func TestCookieManagerClose(t *testing.T) {
	f, m := cookieManager(t)
	m.Close()
	m.Close()
	assert.Equal(t, 1, f.managersDestroy)

	assert.ErrorIs(t, m.SetCookie("https://a", NewCookie("a", "b")), ErrCookieManagerClosed)
	assert.ErrorIs(t, m.FlushStore(), ErrCookieManagerClosed)
	_, err := m.Cookies(context.Background(), "")
	assert.ErrorIs(t, err, ErrCookieManagerClosed)
}

func TestRefusedVisitReleasesContext(t *testing.T) {
	f, m := cookieManager(t)
	f.refuseVisit = true
	before := contexts.Len()

	done, err := m.VisitAllCookies(func(Cookie) bool { return true })
	assert.ErrorIs(t, err, ErrVisitCookiesFailed)
	assert.Nil(t, done)
	assert.Equal(t, before, contexts.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = m.Cookies(ctx, "https://a")
	assert.ErrorIs(t, err, ErrVisitCookiesFailed)
	assert.Equal(t, before, contexts.Len())
	assert.Zero(t, f.visitorsFinished)
}

func TestVisitURLCookiesRejectsEmptyURL(t *testing.T) {
	_, m := cookieManager(t)
	before := contexts.Len()

	_, err := m.VisitURLCookies("", true, func(Cookie) bool { return true })
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Equal(t, before, contexts.Len())
}
