package fieldval

import (
	"context"
	"sync"
)

// Future is the pending outcome of an asynchronous validator.  It
// settles exactly once, through either its resolve or its reject
// branch, and always carries a Result.  A rejected future fails the
// field no matter what its Result says.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	rejected  bool
	result    Result
	callbacks []func(Result, bool)
}

// NewFuture returns an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already settled through the resolve branch.
func Resolved(r Result) *Future {
	f := NewFuture()
	f.Resolve(r)
	return f
}

// Rejected returns a future already settled through the reject branch.
func Rejected(r Result) *Future {
	f := NewFuture()
	f.Reject(r)
	return f
}

// Go runs fn on its own goroutine.  The future resolves when fn
// reports a valid result and rejects otherwise; an error becomes the
// rejection's message.
func Go(ctx context.Context, fn func(context.Context) (Result, error)) *Future {
	f := NewFuture()

	go func() {
		// Skip the work entirely when the context is already gone.
		select {
		case <-ctx.Done():
			f.Reject(Invalid(ctx.Err().Error()))
			return
		default:
		}

		r, err := fn(ctx)
		switch {
		case err != nil:
			f.Reject(Invalid(err.Error()))
		case !r.IsValid:
			f.Reject(r)
		default:
			f.Resolve(r)
		}
	}()

	return f
}

// Resolve settles the future successfully.  Later settles are ignored.
func (f *Future) Resolve(r Result) {
	f.settle(r, false)
}

// Reject settles the future as failed.  Later settles are ignored.
func (f *Future) Reject(r Result) {
	f.settle(r, true)
}

func (f *Future) settle(r Result, rejected bool) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.rejected = rejected
	f.result = r
	cbs := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	// Callbacks finish before any waiter wakes.
	for _, cb := range cbs {
		cb(r, rejected)
	}
	close(f.done)
}

// OnSettle registers cb to run when the future settles, with the
// result and whether it was rejected.  On a settled future cb runs
// immediately.
func (f *Future) OnSettle(cb func(r Result, rejected bool)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	r, rejected := f.result, f.rejected
	f.mu.Unlock()
	cb(r, rejected)
}

// Await blocks until the future settles or ctx is done.  A rejection
// returns the result together with ErrRejected.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
	default:
		select {
		case <-f.done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejected {
		return f.result, ErrRejected
	}
	return f.result, nil
}

// Done is closed once the future has settled and its callbacks ran.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsSettled reports whether the future has settled, without blocking.
func (f *Future) IsSettled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
