package wew

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wew/internal/native"
)

func TestCreateRuntimeOffMainThread(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()

	rt, err := attrs.CreateRuntime(&recordingRuntime{})
	assert.Nil(t, rt)
	assert.ErrorIs(t, err, ErrNonUIThread)
	assert.False(t, runtimeRunning.Load())
	assert.Equal(t, NoRuntime, State())
	assert.Zero(t, f.createRuntimes)
}

func TestOffMainThreadCallerNeverClaimsRuntime(t *testing.T) {
	installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()

	prev := isMainThread
	t.Cleanup(func() { isMainThread = prev })
	claimed := false
	isMainThread = func() bool {
		claimed = runtimeRunning.Load()
		return false
	}

	_, err := attrs.CreateRuntime(&recordingRuntime{})
	assert.ErrorIs(t, err, ErrNonUIThread)
	assert.False(t, claimed, "flag must not be held while the thread is checked")
	assert.False(t, runtimeRunning.Load())
}

func TestAlreadyExistsTakesPrecedenceOffMainThread(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()
	createRuntime(t, attrs, &recordingRuntime{})
	f.fireInitialized()

	_, err := attrs.CreateRuntime(&recordingRuntime{})
	assert.ErrorIs(t, err, ErrRuntimeAlreadyExists)
	assert.True(t, runtimeRunning.Load())
	assert.Equal(t, 1, f.createRuntimes)
}

func TestCreateRuntimeUniqueness(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()

	first := createRuntime(t, attrs, &recordingRuntime{})
	f.fireInitialized()

	var err error
	onMain(t, func() { _, err = attrs.CreateRuntime(&recordingRuntime{}) })
	assert.ErrorIs(t, err, ErrRuntimeAlreadyExists)
	assert.Equal(t, 1, f.createRuntimes)

	// The first runtime keeps working.
	assert.True(t, first.Initialized())
	wv, err := first.CreateWebView("https://example.com", nil, NopWebViewHandler{})
	require.NoError(t, err)
	wv.Close()
}

func TestCreateRuntimeNativeFailure(t *testing.T) {
	f := installFake(t)
	f.failRuntime = true
	before := contexts.Len()

	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()
	var err error
	onMain(t, func() { _, err = attrs.CreateRuntime(&recordingRuntime{}) })
	assert.ErrorIs(t, err, ErrFailedToCreateRuntime)
	assert.False(t, runtimeRunning.Load())
	assert.Equal(t, NoRuntime, State())
	assert.Equal(t, before, contexts.Len())

	// A later attempt may succeed.
	f.failRuntime = false
	createRuntime(t, attrs, &recordingRuntime{})
}

func TestMainThreadRuntimeExecutesSynchronously(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()
	createRuntime(t, attrs, &recordingRuntime{})

	select {
	case onMain := <-f.executed:
		assert.True(t, onMain)
	default:
		t.Fatal("runtime was not executed during creation")
	}
	assert.Equal(t, []string{"wew-test", "--enable-logging"}, f.executeArgs)
	assert.Equal(t, RuntimeStarting, State())
}

func TestMultiThreadInitializedBeforeHook(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("multi-threaded loop is unavailable on macOS")
	}
	f := installFake(t)
	h := &recordingRuntime{}
	attrs := NewMultiThreadMessageLoop().NewRuntimeAttributesBuilder(NativeWindow).Build()

	rt := createRuntime(t, attrs, h)
	h.rt = rt
	assert.False(t, rt.Initialized())

	select {
	case onMain := <-f.executed:
		assert.False(t, onMain, "multi-threaded runtime must be driven off the main thread")
	case <-time.After(2 * time.Second):
		t.Fatal("driving thread never executed the runtime")
	}

	f.fireInitialized()
	assert.True(t, rt.Initialized())
	assert.Equal(t, 1, h.inits)
	assert.True(t, h.flagAtInit)
	assert.Equal(t, RuntimeInitialized, State())
	assert.True(t, f.runtimeSettings.MultiThreadedMessageLoop)

	rt.Close()
	assert.Equal(t, 1, f.quitLoops)
	assert.Equal(t, NoRuntime, State())
}

func TestRuntimeSettingsRecord(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(Windowless).
		WithCachePath("/tmp/cache").
		WithLogSeverity(LogInfo).
		WithBackgroundColor(0xFF000000).
		Build()
	createRuntime(t, attrs, &recordingRuntime{})

	s := f.runtimeSettings
	require.NotNil(t, s)
	require.NotZero(t, s.CachePath)
	assert.Equal(t, []byte("/tmp/cache\x00"), native.Bytes(s.CachePath, len("/tmp/cache")+1))
	assert.Equal(t, native.LogInfo, s.LogSeverity)
	assert.Equal(t, uint32(0xFF000000), s.BackgroundColor)
	assert.True(t, s.WindowlessRenderingEnabled)
	assert.False(t, s.ExternalMessagePump)
	assert.False(t, s.MultiThreadedMessageLoop)
	assert.Zero(t, s.RootCachePath)
	assert.Zero(t, s.CustomScheme)
}

func TestThreadModelFlags(t *testing.T) {
	cases := []struct {
		name              string
		loop              MessageLoop
		multi, pump, offs bool
		mode              RenderMode
	}{
		{"main thread", MainThreadMessageLoop{}, false, false, false, NativeWindow},
		{"message pump", MessagePumpLoop{}, false, true, true, Windowless},
		{"multi thread", MultiThreadMessageLoop{}, true, false, false, NativeWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.loop.NewRuntimeAttributesBuilder(tc.mode).Build().settings()
			defer s.release()
			assert.Equal(t, tc.multi, s.record.MultiThreadedMessageLoop)
			assert.Equal(t, tc.pump, s.record.ExternalMessagePump)
			assert.Equal(t, tc.offs, s.record.WindowlessRenderingEnabled)
			assert.False(t, s.record.MultiThreadedMessageLoop && s.record.ExternalMessagePump)
		})
	}
}

func TestBuilderRejectsNUL(t *testing.T) {
	b := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow)
	assert.Panics(t, func() { b.WithCachePath("/tmp/\x00cache") })

	// Only the failing setter is affected.
	attrs := b.WithLocale("en-US").Build()
	assert.Equal(t, "en-US", attrs.locale)
	assert.Empty(t, attrs.cachePath)
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, native.LogDisable, LogOff.native())
	assert.Equal(t, native.LogInfo, LogInfo.native())
	assert.Equal(t, native.LogError, LogError.native())
	assert.Equal(t, native.LogWarning, LogWarn.native())
	assert.Equal(t, native.LogDebug, LogDebug.native())
	assert.Equal(t, native.LogVerbose, LogTrace.native())

	assert.Equal(t, LogWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogOff, ParseLogLevel("loud"))
}

func TestPumpHandlerReceivesDelay(t *testing.T) {
	f := installFake(t)
	h := &pumpRuntime{}
	attrs := MessagePumpLoop{}.NewRuntimeAttributesBuilder(Windowless).Build()
	createRuntime(t, attrs, h)

	f.runtimeHandler.OnScheduleMessagePumpWork(16, f.runtimeHandler.Context)
	f.runtimeHandler.OnScheduleMessagePumpWork(0, f.runtimeHandler.Context)
	assert.Equal(t, []int64{16, 0}, h.delays)

	// Plain handlers ignore pump scheduling.
	assert.NotPanics(t, func() {
		onScheduleMessagePumpWork(5, f.runtimeHandler.Context+1000)
	})
}

func TestRuntimeCloseIdempotent(t *testing.T) {
	f := installFake(t)
	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()
	before := contexts.Len()
	rt := createRuntime(t, attrs, &recordingRuntime{})

	rt.Close()
	rt.Close()
	require.Len(t, f.closedRuntimes, 1)
	for _, n := range f.closedRuntimes {
		assert.Equal(t, 1, n)
	}
	assert.False(t, runtimeRunning.Load())
	assert.Equal(t, before, contexts.Len())
	assert.Zero(t, f.quitLoops)
}

func TestLoopsOffMainThreadPanic(t *testing.T) {
	installFake(t)
	assert.PanicsWithValue(t, ErrNonUIThread, func() { MainThreadMessageLoop{}.Run() })
	assert.PanicsWithValue(t, ErrNonUIThread, func() { MessagePumpLoop{}.Poll() })
	assert.PanicsWithValue(t, ErrNonUIThread, func() { ExecuteSubprocess() })
}

func TestPollWithoutRuntimeIsNoop(t *testing.T) {
	f := installFake(t)
	onMain(t, func() { MessagePumpLoop{}.Poll() })
	assert.Zero(t, f.polls)

	createRuntime(t, MessagePumpLoop{}.NewRuntimeAttributesBuilder(Windowless).Build(), &pumpRuntime{})
	onMain(t, func() { MessagePumpLoop{}.Poll() })
	assert.Equal(t, 1, f.polls)
}

func TestRunAndQuitOnMain(t *testing.T) {
	f := installFake(t)
	MainThreadMessageLoop{}.Quit()
	assert.Zero(t, f.quitLoops, "quit without a runtime does nothing")

	createRuntime(t, MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build(), &recordingRuntime{})
	onMain(t, func() { MainThreadMessageLoop{}.Run() })
	MainThreadMessageLoop{}.Quit()
	assert.Equal(t, 1, f.runLoops)
	assert.Equal(t, 1, f.quitLoops)
}

func TestIsSubprocessArgs(t *testing.T) {
	assert.True(t, isSubprocessArgs([]string{"app", "--type=renderer"}))
	assert.True(t, isSubprocessArgs([]string{"app", "--type"}))
	assert.False(t, isSubprocessArgs([]string{"app", "--typed"}))
	assert.False(t, isSubprocessArgs([]string{"app"}))
}

func TestPostMainRunsOnce(t *testing.T) {
	f := installFake(t)
	before := contexts.Len()

	runs := 0
	require.True(t, PostMain(func() { runs++ }))
	require.Len(t, f.tasks, 1)

	f.tasks[0]()
	f.tasks[0]()
	assert.Equal(t, 1, runs)
	assert.Equal(t, before, contexts.Len())
}

func TestObserverPanicIsFatal(t *testing.T) {
	f := installFake(t)
	var code int
	prev := fatal
	fatal = func(c int) { code = c }
	t.Cleanup(func() { fatal = prev })

	attrs := MainThreadMessageLoop{}.NewRuntimeAttributesBuilder(NativeWindow).Build()
	createRuntime(t, attrs, RuntimeHandlerFunc(func() { panic("observer bug") }))

	assert.NotPanics(t, f.fireInitialized)
	assert.Equal(t, exitObserverPanic, code)
}
