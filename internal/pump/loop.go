package pump

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/wew/internal/mainthread"
)

// ErrNotMainThread is returned by Run off the main thread.
var ErrNotMainThread = errors.New("pump: loop must run on the main thread")

// Loop runs posted tasks on the goroutine calling Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	quitMu sync.Once

	isMain func() bool
}

func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		isMain: mainthread.IsMain,
	}
}

// Post queues fn and never blocks. It reports false once the loop quit.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks in order until Quit is called or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	if !l.isMain() {
		return ErrNotMainThread
	}
	for {
		select {
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range tasks {
			fn()
			select {
			case <-l.done:
				return nil
			default:
			}
		}
	}
}

// Quit stops Run after the task currently executing. Pending tasks are
// dropped.
func (l *Loop) Quit() {
	l.quitMu.Do(func() { close(l.done) })
}
