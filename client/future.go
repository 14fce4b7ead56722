package client

import (
	"context"
	"sync"

	"github.com/flamesh/flame"
)

// Future is returned by Session.Run. Cancel stops watching the task but
// does not cancel it on the frontend (Open Question 2 in SPEC_FULL.md:
// "Source leaves the task running"). Result/Exception may be called
// repeatedly and concurrently; the outcome is captured once and replayed.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	output []byte
	err    error
}

// newFuture returns a Future and the context its background invocation
// should run under; cancelling the Future cancels that context, which stops
// watching the task without affecting its state at the frontend.
func newFuture() (*Future, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Future{done: make(chan struct{}), cancel: cancel}
	return f, ctx
}

// Result blocks until the task completes or ctx is done, returning the
// output bytes or a *flame.Error. Safe to call more than once.
func (f *Future) Result(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.output, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Exception returns the *flame.Error the task failed with, or nil if it
// succeeded. Blocks like Result.
func (f *Future) Exception(ctx context.Context) *flame.Error {
	_, err := f.Result(ctx)
	if err == nil {
		return nil
	}
	fe, ok := flame.AsError(err)
	if !ok {
		return flame.Wrap(flame.CodeInternal, err, "future failed")
	}
	return fe
}

// Cancel stops watching the underlying task; it does not cancel the task at
// the frontend.
func (f *Future) Cancel() {
	f.cancel()
}

func (f *Future) complete(output []byte, err error) {
	f.mu.Lock()
	f.output, f.err = output, err
	f.mu.Unlock()
	close(f.done)
}
