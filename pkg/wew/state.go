package wew

import "sync/atomic"

// ProcessState is the process-wide runtime lifecycle state.
type ProcessState int32

const (
	NoRuntime ProcessState = iota
	RuntimeStarting
	RuntimeInitialized
	RuntimeClosing
)

func (s ProcessState) String() string {
	switch s {
	case NoRuntime:
		return "no-runtime"
	case RuntimeStarting:
		return "starting"
	case RuntimeInitialized:
		return "initialized"
	case RuntimeClosing:
		return "closing"
	default:
		return "unknown"
	}
}

var (
	// runtimeRunning is set while a runtime exists in the process. It gates
	// creation and MessagePumpLoop.Poll.
	runtimeRunning atomic.Bool
	processState   atomic.Int32
)

// State returns the current process-wide runtime state.
func State() ProcessState {
	return ProcessState(processState.Load())
}

func setState(s ProcessState) {
	processState.Store(int32(s))
}
