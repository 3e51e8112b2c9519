package reactive

import (
	"context"
	"fmt"
	"sync"
)

// Loop serializes work on a Runtime onto a single goroutine.
//
// Each submitted function is one unit of work: after it returns, the
// runtime is flushed so reactors and autoCache sweeps run before the next
// submission starts.
//
// Example:
//
//	loop := reactive.NewLoop(rt)
//	go loop.Run(ctx)
//
//	err := loop.Submit(ctx, func() {
//	    price.Set(12)
//	})
type Loop struct {
	rt   *Runtime
	work chan func()

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewLoop creates a loop for rt. Call Run to start processing.
func NewLoop(rt *Runtime) *Loop {
	return &Loop{
		rt:      rt,
		work:    make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Runtime returns the runtime driven by the loop.
func (l *Loop) Runtime() *Runtime {
	return l.rt
}

// Run processes submissions until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.work:
			task()
		}
	}
}

// Submit runs fn on the loop goroutine as one unit of work and waits for
// it, including the flush that follows. A panic in fn or in a reactor
// callback is recovered and returned as an error.
func (l *Loop) Submit(ctx context.Context, fn func()) error {
	done := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		fn()
		l.rt.Flush()
		done <- nil
	}

	select {
	case l.work <- task:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
