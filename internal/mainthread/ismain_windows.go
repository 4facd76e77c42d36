package mainthread

import "golang.org/x/sys/windows"

var mainThreadID uint32

func recordMain() {
	mainThreadID = windows.GetCurrentThreadId()
}

func isMain() bool {
	return windows.GetCurrentThreadId() == mainThreadID
}
