package wew

import "strings"

// IsSubprocess reports whether this process was launched by the engine as
// one of its helper processes.
func IsSubprocess() bool {
	return isSubprocessArgs(processArgs())
}

func isSubprocessArgs(args []string) bool {
	for _, a := range args {
		if a == "--type" || strings.Contains(a, "--type=") {
			return true
		}
	}
	return false
}

// ExecuteSubprocess runs the engine helper process logic and reports whether
// it exited cleanly. It blocks until the helper is done and panics with
// ErrNonUIThread off the main thread.
func ExecuteSubprocess() bool {
	if !isMainThread() {
		panic(ErrNonUIThread)
	}
	e, err := currentEngine()
	if err != nil {
		log().Error().Err(err).Msg("cannot run engine subprocess")
		return false
	}
	return e.ExecuteSubprocess(processArgs()) == 0
}

// ExitCode returns the exit code the engine recorded for this process.
func ExitCode() int {
	e, err := currentEngine()
	if err != nil {
		return 0
	}
	return int(e.ExitCode())
}
