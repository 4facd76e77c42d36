package wew

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/wew/internal/mainthread"
)

// TestMain keeps the main goroutine serving mainthread.Call so tests can run
// main-thread-only code on the real main thread.
func TestMain(m *testing.M) {
	code := 0
	mainthread.Run(func() { code = m.Run() })
	os.Exit(code)
}

func onMain(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, mainthread.Call(fn))
}

func installFake(t *testing.T) *fakeEngine {
	t.Helper()
	f := newFakeEngine()
	SetEngine(f)

	prevArgs := processArgs
	processArgs = func() []string { return []string{"wew-test", "--enable-logging"} }
	t.Cleanup(func() {
		SetEngine(nil)
		processArgs = prevArgs
		runtimeRunning.Store(false)
		setState(NoRuntime)
	})
	return f
}

func createRuntime(t *testing.T, attrs *RuntimeAttributes, h RuntimeHandler) *Runtime {
	t.Helper()
	var (
		rt  *Runtime
		err error
	)
	onMain(t, func() { rt, err = attrs.CreateRuntime(h) })
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

type recordingRuntime struct {
	rt         *Runtime
	inits      int
	flagAtInit bool
	delays     []int64
}

func (r *recordingRuntime) OnContextInitialized() {
	r.inits++
	if r.rt != nil {
		r.flagAtInit = r.rt.Initialized()
	}
}

type pumpRuntime struct {
	recordingRuntime
}

func (p *pumpRuntime) OnScheduleMessagePumpWork(delay int64) {
	p.delays = append(p.delays, delay)
}

type recordingWebView struct {
	NopWindowlessHandler
	states  []WebViewState
	titles  []string
	msgs    []string
	frames  [][]byte
	rects   []Rect
	ime     []Rect
	cursors []Cursor
	full    []bool
	onState func(WebViewState)
}

func (r *recordingWebView) OnStateChange(s WebViewState) {
	r.states = append(r.states, s)
	if r.onState != nil {
		r.onState(s)
	}
}

func (r *recordingWebView) OnTitleChange(t string)    { r.titles = append(r.titles, t) }
func (r *recordingWebView) OnMessage(m string)        { r.msgs = append(r.msgs, m) }
func (r *recordingWebView) OnFullscreenChange(v bool) { r.full = append(r.full, v) }
func (r *recordingWebView) OnIMERect(rect Rect)       { r.ime = append(r.ime, rect) }
func (r *recordingWebView) OnCursor(c Cursor)         { r.cursors = append(r.cursors, c) }

func (r *recordingWebView) OnFrame(frame []byte, rect Rect) {
	r.frames = append(r.frames, append([]byte(nil), frame...))
	r.rects = append(r.rects, rect)
}
