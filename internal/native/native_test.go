package native

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringsPtrIsNULTerminated(t *testing.T) {
	var s Strings
	defer s.Release()

	p := s.Ptr("/tmp/cache")
	require.NotZero(t, p)

	raw := Bytes(p, len("/tmp/cache")+1)
	assert.Equal(t, []byte("/tmp/cache\x00"), raw)
	assert.Equal(t, "/tmp/cache", GoString(p))
}

func TestGoStringZeroPointer(t *testing.T) {
	assert.Equal(t, "", GoString(0))
	assert.Nil(t, Bytes(0, 4))
}

func TestHasNUL(t *testing.T) {
	assert.False(t, HasNUL("plain"))
	assert.True(t, HasNUL("bad\x00value"))
}

// engineBuffer returns a pinned heap buffer standing in for memory the engine
// owns, together with its address.
func engineBuffer(t *testing.T, n int) ([]byte, uintptr) {
	t.Helper()
	buf := make([]byte, n)
	var pin runtime.Pinner
	pin.Pin(&buf[0])
	t.Cleanup(pin.Unpin)
	return buf, uintptr(unsafe.Pointer(&buf[0]))
}

func TestWriteMimeTypeTruncates(t *testing.T) {
	buf, dst := engineBuffer(t, MimeTypeCapacity)
	for i := range buf {
		buf[i] = 0xAA
	}

	WriteMimeType(dst, "text/html")
	assert.Equal(t, "text/html", GoString(dst))

	long := strings.Repeat("x", 400)
	WriteMimeType(dst, long)
	assert.Equal(t, MimeTypeCapacity-1, len(GoString(dst)))
	assert.Equal(t, byte(0), buf[MimeTypeCapacity-1])
}

func TestCandidatesHonorsOverride(t *testing.T) {
	dir := t.TempDir()

	t.Run("directory", func(t *testing.T) {
		t.Setenv(EnvLibraryPath, dir)
		c := Candidates()
		require.NotEmpty(t, c)
		assert.Equal(t, filepath.Join(dir, LibraryName()), c[0])
		assert.Equal(t, LibraryName(), c[len(c)-1])
	})

	t.Run("file", func(t *testing.T) {
		file := filepath.Join(dir, "custom.so")
		t.Setenv(EnvLibraryPath, file)
		assert.Equal(t, file, Candidates()[0])
	})
}

func TestTrampolinesDispatchByContext(t *testing.T) {
	const ctx = uintptr(0x51)

	var states []int32
	var fullscreen bool
	webviewSlots.put(ctx, WebViewHandler{
		OnStateChange:      func(state int32, _ uintptr) { states = append(states, state) },
		OnFullscreenChange: func(v bool, _ uintptr) { fullscreen = v },
		Context:            ctx,
	})
	defer webviewSlots.drop(ctx)

	// Upper bits are garbage from the caller's point of view.
	onStateChange(uintptr(0xdead_0000_0000_0002), ctx)
	onStateChange(uintptr(StateClose), ctx)
	onFullscreenChange(uintptr(0xff01), ctx)

	assert.Equal(t, []int32{StateLoaded, StateClose}, states)
	assert.True(t, fullscreen)

	// Unknown context is ignored.
	onStateChange(uintptr(StateLoaded), ctx+1)
	assert.Len(t, states, 2)
}

func TestRequestHandlerCursorOnMissingHandler(t *testing.T) {
	var cursor int32
	assert.Zero(t, onSkip(16, &cursor, 0x9999))
	assert.Equal(t, int32(-2), cursor)

	cursor = 0
	buf, addr := engineBuffer(t, 8)
	assert.Zero(t, onRead(addr, uintptr(len(buf)), &cursor, 0x9999))
	assert.Equal(t, int32(-2), cursor)
}

func TestRequestRoundTrip(t *testing.T) {
	const factoryCtx, handlerCtx = uintptr(0x61), uintptr(0x62)

	destroyed := 0
	factorySlots.put(factoryCtx, RequestHandlerFactory{
		Request: func(url, _, _ uintptr, _ uintptr) (uintptr, bool) {
			return handlerCtx, GoString(url) == "wew://app/index.html"
		},
		Handler: RequestHandler{
			Read: func(buf []byte, _ uintptr) (int32, bool) {
				n := copy(buf, "hello")
				return int32(n), n > 0
			},
			GetResponse: func(uintptr) (int32, uint64, string) { return 200, 5, "text/plain" },
			Destroy:     func(uintptr) { destroyed++ },
		},
		Context: factoryCtx,
	})
	defer factorySlots.drop(factoryCtx)

	var strs Strings
	defer strs.Release()
	req := &Request{URL: strs.Ptr("wew://app/index.html"), Method: strs.Ptr("GET"), Referrer: strs.Ptr("")}

	record := onRequest(req, factoryCtx)
	require.NotZero(t, record)

	buf, addr := engineBuffer(t, 16)
	var cursor int32
	assert.Equal(t, uintptr(1), onRead(addr, uintptr(len(buf)), &cursor, handlerCtx))
	assert.Equal(t, int32(5), cursor)
	assert.Equal(t, "hello", string(buf[:cursor]))

	_, mime := engineBuffer(t, MimeTypeCapacity)
	resp := &Response{MimeType: mime}
	onGetResponse(resp, handlerCtx)
	assert.Equal(t, int32(200), resp.StatusCode)
	assert.Equal(t, uint64(5), resp.ContentLength)
	assert.Equal(t, "text/plain", GoString(resp.MimeType))

	onDestroy(handlerCtx)
	onDestroyRequestHandler(record)
	assert.Equal(t, 1, destroyed)

	// A second destroy is a no-op.
	onDestroy(handlerCtx)
	assert.Equal(t, 1, destroyed)
	_, ok := pinned.release(record)
	assert.False(t, ok)

	// Declined requests produce no record.
	declined := &Request{URL: strs.Ptr("wew://app/missing"), Method: strs.Ptr("GET"), Referrer: strs.Ptr("")}
	assert.Zero(t, onRequest(declined, factoryCtx))
}

func TestTaskRunsOnce(t *testing.T) {
	const ctx = uintptr(0x71)
	runs := 0
	taskSlots.put(ctx, func(uintptr) { runs++ })

	onTask(ctx)
	onTask(ctx)
	assert.Equal(t, 1, runs)
}

func TestVisitWithoutManagerKeepsNothing(t *testing.T) {
	const ctx = uintptr(0x81)
	var lib Library
	visitor := CookieVisitor{Context: ctx}

	assert.False(t, lib.VisitAllCookies(0, visitor))
	assert.False(t, lib.VisitURLCookies(0, "https://a", true, visitor))

	_, ok := visitorSlots.get(ctx)
	assert.False(t, ok)
	assert.False(t, pinned.releaseByContext(ctx))
}
