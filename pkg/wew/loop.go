package wew

import "runtime"

// RenderMode selects how webviews of a runtime present their output.
type RenderMode int

const (
	// NativeWindow webviews create and paint their own platform window.
	NativeWindow RenderMode = iota
	// Windowless webviews deliver frames through
	// WindowlessRenderWebViewHandler.OnFrame and take input from the host.
	Windowless
)

func (m RenderMode) String() string {
	if m == Windowless {
		return "windowless"
	}
	return "native-window"
}

type loopKind int

const (
	loopMainThread loopKind = iota
	loopMultiThread
	loopMessagePump
)

// MessageLoop is implemented by MainThreadMessageLoop,
// MultiThreadMessageLoop and MessagePumpLoop only.
type MessageLoop interface {
	NewRuntimeAttributesBuilder(mode RenderMode) *RuntimeAttributesBuilder
	kind() loopKind
}

// MainThreadMessageLoop runs the engine loop on the main thread inside Run.
type MainThreadMessageLoop struct{}

func (MainThreadMessageLoop) kind() loopKind { return loopMainThread }

// NewRuntimeAttributesBuilder returns a builder for a runtime driven by Run.
func (l MainThreadMessageLoop) NewRuntimeAttributesBuilder(mode RenderMode) *RuntimeAttributesBuilder {
	return newRuntimeAttributesBuilder(l, mode)
}

// Run blocks until Quit is called. It panics with ErrNonUIThread when called
// off the main thread.
func (MainThreadMessageLoop) Run() {
	if !isMainThread() {
		panic(ErrNonUIThread)
	}
	e, err := currentEngine()
	if err != nil {
		panic(err)
	}
	e.RunMessageLoop()
}

// Quit makes Run return. It may be called from any thread, including from
// engine callbacks, and does nothing when no runtime exists.
func (MainThreadMessageLoop) Quit() {
	quitMessageLoop()
}

func quitMessageLoop() {
	if !runtimeRunning.Load() {
		return
	}
	if e, err := currentEngine(); err == nil {
		e.QuitMessageLoop()
	}
}

// MultiThreadMessageLoop lets the runtime drive its loop on a dedicated
// thread for its whole lifetime. There is nothing to call on it.
type MultiThreadMessageLoop struct{}

// NewMultiThreadMessageLoop returns the loop. It panics on macOS, where the
// UI frameworks require the loop on the process main thread.
func NewMultiThreadMessageLoop() MultiThreadMessageLoop {
	if runtime.GOOS == "darwin" {
		panic(ErrMultiThreadUnsupported)
	}
	return MultiThreadMessageLoop{}
}

func (MultiThreadMessageLoop) kind() loopKind { return loopMultiThread }

// NewRuntimeAttributesBuilder returns a builder for a runtime driven by an
// engine-owned thread.
func (l MultiThreadMessageLoop) NewRuntimeAttributesBuilder(mode RenderMode) *RuntimeAttributesBuilder {
	return newRuntimeAttributesBuilder(l, mode)
}

// MessagePumpLoop is driven by the host calling Poll, typically after the
// delay announced through MessagePumpRuntimeHandler.OnScheduleMessagePumpWork.
type MessagePumpLoop struct{}

func (MessagePumpLoop) kind() loopKind { return loopMessagePump }

// NewRuntimeAttributesBuilder returns a builder for a runtime driven by Poll.
func (l MessagePumpLoop) NewRuntimeAttributesBuilder(mode RenderMode) *RuntimeAttributesBuilder {
	return newRuntimeAttributesBuilder(l, mode)
}

// Poll performs one non-blocking iteration of pending engine work. It panics
// with ErrNonUIThread off the main thread and does nothing while no runtime
// exists.
func (MessagePumpLoop) Poll() {
	if !isMainThread() {
		panic(ErrNonUIThread)
	}
	if !runtimeRunning.Load() {
		return
	}
	if e, err := currentEngine(); err == nil {
		e.PollMessageLoop()
	}
}
