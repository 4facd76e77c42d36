// Package pump drives an engine whose message loop is pumped by the host.
//
// The engine announces pending work with a delay; Scheduler turns those
// announcements into poll calls posted to the main thread, and Loop is a
// minimal main-thread task queue to post them to.
package pump

import (
	"sync"
	"time"
)

// MaxDelay caps how long a scheduled poll may be deferred. The engine may
// announce longer delays but still expects to be polled at this rate.
const MaxDelay = time.Second / 30

type stopper interface {
	Stop() bool
}

// Scheduler merges bursts of pump-work requests into single poll calls.
type Scheduler struct {
	mu      sync.Mutex
	post    func(func())
	poll    func()
	timer   stopper
	due     time.Time
	pending bool
	stopped bool

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
}

// NewScheduler returns a scheduler that posts poll through post.
func NewScheduler(post func(func()), poll func()) *Scheduler {
	if post == nil || poll == nil {
		panic("pump.NewScheduler: post and poll cannot be nil")
	}
	return &Scheduler{
		post: post,
		poll: poll,
		now:  time.Now,
		afterFunc: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
	}
}

// Schedule requests a poll after delayMS milliseconds. Zero or less polls as
// soon as possible. A request later than an already armed one is absorbed
// by it.
func (s *Scheduler) Schedule(delayMS int64) {
	if delayMS <= 0 {
		s.fire()
		return
	}

	d := time.Duration(delayMS) * time.Millisecond
	if d > MaxDelay {
		d = MaxDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending {
		return
	}
	due := s.now().Add(d)
	if s.timer != nil {
		if !s.due.After(due) {
			return
		}
		s.timer.Stop()
	}
	s.due = due
	s.timer = s.afterFunc(d, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopped || s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = true
	post := s.post
	s.mu.Unlock()

	post(s.run)
}

func (s *Scheduler) run() {
	s.mu.Lock()
	s.pending = false
	stopped := s.stopped
	s.mu.Unlock()

	if !stopped {
		s.poll()
	}
}

// Stop cancels the armed timer and drops queued polls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
