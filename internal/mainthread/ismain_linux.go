package mainthread

import "golang.org/x/sys/unix"

func recordMain() {}

// The main thread's TID equals the process ID on Linux.
func isMain() bool {
	return unix.Gettid() == unix.Getpid()
}
