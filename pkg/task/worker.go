// Package task provides the cooperative one-shot execution primitive shared
// by every node in the graph. A Worker runs a single unit of work on its own
// goroutine and hands its outcome to every caller of Finalize.
package task

import (
	"fmt"
	"sync"

	"github.com/cloudconductor/orchestrator/pkg/log"
)

// Work is the unit of execution a Worker runs. Implementations return an
// error for any failure; a panic inside Work is also captured and surfaced
// as the Worker's failure.
type Work func() error

// Worker runs a Work function on its own goroutine exactly once and hands
// its outcome to however many callers call Finalize. It is the Go
// translation of a daemon thread that reports through a result queue: done
// is closed exactly once by the worker goroutine, so Finalize can block any
// number of callers without Start needing to know how many readers will
// eventually show up, and a second Finalize call finds done already closed
// and returns the same cached error immediately.
type Worker struct {
	errMsg string

	mu       sync.Mutex
	finished bool
	err      error
	done     chan struct{}

	started bool
}

// NewWorker creates a Worker. errMsg labels panic/failure log lines, the way
// a caller-supplied message labels an uncaught exception.
func NewWorker(errMsg string) *Worker {
	return &Worker{
		errMsg: errMsg,
		done:   make(chan struct{}),
	}
}

// Start launches work on a new goroutine. It must be called at most once.
func (w *Worker) Start(work Work) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		panic("task: Worker.Start called more than once")
	}
	w.started = true
	w.mu.Unlock()

	go w.run(work)
}

func (w *Worker) run(work Work) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		err = work()
	}()

	if err != nil {
		log.Logger.Error().Err(err).Msg(w.errMsg)
	}

	w.mu.Lock()
	w.finished = true
	w.err = err
	w.mu.Unlock()

	close(w.done)
}

// IsDone reports whether the worker's goroutine has returned.
func (w *Worker) IsDone() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// Finalize blocks until the worker's goroutine has finished, then returns
// the error it produced, if any. It is safe to call any number of times.
func (w *Worker) Finalize() error {
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
