// Package mainthread pins the main goroutine to the process main thread and
// lets other goroutines run functions on it.
//
// Importing the package locks the main goroutine to its OS thread during
// package initialisation, which is the only point where that goroutine is
// guaranteed to still be on the main thread.
package mainthread

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrNotRunning is returned by Call when no Run loop is serving calls.
var ErrNotRunning = errors.New("mainthread: loop not running")

func init() {
	runtime.LockOSThread()
	recordMain()
}

var (
	running atomic.Bool
	queue   = make(chan func())
	stopMu  sync.Mutex
	stop    chan struct{}
)

// IsMain reports whether the caller runs on the process main thread.
func IsMain() bool {
	return isMain()
}

// Run serves Call requests on the main thread until fn returns. fn itself
// runs on a separate goroutine. Run must be called from the main goroutine.
func Run(fn func()) {
	if !IsMain() {
		panic("mainthread: Run called off the main thread")
	}

	done := make(chan struct{})
	stopMu.Lock()
	stop = done
	stopMu.Unlock()
	running.Store(true)
	defer running.Store(false)

	go func() {
		defer close(done)
		fn()
	}()

	for {
		select {
		case f := <-queue:
			f()
		case <-done:
			return
		}
	}
}

// Call runs fn on the main thread and waits for it to return. Called from
// the main thread it runs fn directly.
func Call(fn func()) error {
	if IsMain() {
		fn()
		return nil
	}
	if !running.Load() {
		return ErrNotRunning
	}

	stopMu.Lock()
	done := stop
	stopMu.Unlock()

	ret := make(chan any, 1)
	wrapped := func() {
		defer func() { ret <- recover() }()
		fn()
	}

	select {
	case queue <- wrapped:
	case <-done:
		return ErrNotRunning
	}

	if p := <-ret; p != nil {
		panic(p)
	}
	return nil
}
