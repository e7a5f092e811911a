// Package loop runs a fixed number of steps that may complete synchronously or later.
package loop

import "sync"

type phase int

const (
	idle phase = iota
	running
	finished
)

// WorkFunc runs one turn. It must eventually call exactly one of next or done.
// Extra calls, and calls after the loop finished, are ignored.
type WorkFunc[T any] func(turn int, next func(), done func(result T))

// Run executes work for turns 0..turns-1 in order.
//
// A turn that calls done stops the loop: callback receives the result and aborted=true.
// If every turn calls next, callback receives the zero value and aborted=false.
// With zero turns callback fires before Run returns and work never runs.
//
// next and done may be called from inside work or at any later point, from any goroutine.
// Synchronous completions are drained by an iterating driver, so the stack depth does not
// grow with the number of turns, and the callback is always delivered by the driver that
// observes the end of the loop.
func Run[T any](turns int, work WorkFunc[T], callback func(result T, aborted bool)) {
	l := &loop[T]{
		turns:    turns,
		work:     work,
		callback: callback,
		hasNext:  true,
	}
	l.drive()
}

type loop[T any] struct {
	mu       sync.Mutex
	phase    phase
	turns    int
	current  int
	hasNext  bool
	aborted  bool
	result   T
	work     WorkFunc[T]
	callback func(T, bool)
}

// drive iterates while turns complete synchronously. Only one driver runs at a time;
// completions that arrive while a driver is active just flag the driver.
func (l *loop[T]) drive() {
	l.mu.Lock()
	if l.phase != idle {
		l.mu.Unlock()
		return
	}
	l.phase = running

	for {
		if l.aborted {
			l.finish()
			return
		}
		if !l.hasNext {
			l.phase = idle
			l.mu.Unlock()
			return
		}
		l.hasNext = false

		if l.current >= l.turns {
			l.finish()
			return
		}

		turn := l.current
		l.current++
		l.mu.Unlock()

		next, done := l.turnHandles()
		l.work(turn, next, done)

		l.mu.Lock()
	}
}

// finish must be called with mu held; it releases mu before delivering the callback.
func (l *loop[T]) finish() {
	l.phase = finished
	result, aborted := l.result, l.aborted
	l.mu.Unlock()
	l.callback(result, aborted)
}

// turnHandles returns next/done for a single turn. Only the first call of either counts.
func (l *loop[T]) turnHandles() (func(), func(T)) {
	var once sync.Once

	next := func() {
		once.Do(func() {
			l.mu.Lock()
			if l.phase == finished {
				l.mu.Unlock()
				return
			}
			l.hasNext = true
			l.mu.Unlock()
			l.drive()
		})
	}

	done := func(result T) {
		once.Do(func() {
			l.mu.Lock()
			if l.phase == finished {
				l.mu.Unlock()
				return
			}
			l.aborted = true
			l.result = result
			l.mu.Unlock()
			l.drive()
		})
	}

	return next, done
}
