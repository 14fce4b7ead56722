// Package entrypoint is a thin layer over the instance harness that lets a
// user supply a single typed function instead of implementing instance.Service
// directly (§4.5). The parameter and return types are captured at
// registration time via Go generics, standing in for the source language's
// runtime reflection over a decorated function's signature.
package entrypoint

import (
	"context"

	"github.com/flamesh/flame/instance"
	"github.com/flamesh/flame/objectcache"
)

// Func is a user entrypoint: one argument of type In, one result of type
// Out. The harness decodes the wire input into In and encodes the returned
// Out back to wire bytes around every call.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Service wraps a Func as an instance.Service. Run it on an
// instance.Harness exactly like any hand-written Service.
type Service[In, Out any] struct {
	fn       Func[In, Out]
	codec    objectcache.Codec
	executor Executor

	sc *instance.SessionContext
}

// Executor runs a unit of work, used to bridge "awaitable" user entrypoints
// onto the harness's own task runner while keeping the outer RPC handler
// synchronous from the scheduler's perspective (§4.5, Design Notes
// "Asynchronous entrypoints"). The default executor runs fn inline.
type Executor interface {
	Run(ctx context.Context, fn func(context.Context) error) error
}

type inlineExecutor struct{}

func (inlineExecutor) Run(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// goroutineExecutor bridges a cooperative entrypoint onto its own goroutine,
// synchronizing back to the caller over a channel — the Go-native shape of
// "await on our own task runner" for user code that wants to run
// concurrently with other in-flight work inside the same process.
type goroutineExecutor struct{}

func (goroutineExecutor) Run(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline runs the user function on the calling goroutine (the default).
func Inline() Executor { return inlineExecutor{} }

// Goroutine runs the user function on its own goroutine, for entrypoints
// that behave like cooperative/awaitable code in the source system.
func Goroutine() Executor { return goroutineExecutor{} }

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	codec    objectcache.Codec
	executor Executor
}

// WithCodec overrides the default object codec.
func WithCodec(c objectcache.Codec) Option {
	return func(o *serviceOptions) { o.codec = c }
}

// WithExecutor selects how the entrypoint function runs (Inline or Goroutine).
func WithExecutor(e Executor) Option {
	return func(o *serviceOptions) { o.executor = e }
}

// New wraps fn as an instance.Service.
func New[In, Out any](fn Func[In, Out], opts ...Option) *Service[In, Out] {
	o := serviceOptions{codec: objectcache.DefaultCodec, executor: Inline()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service[In, Out]{fn: fn, codec: o.codec, executor: o.executor}
}

// OnSessionEnter stashes the session context for later Context/UpdateContext calls.
func (s *Service[In, Out]) OnSessionEnter(ctx context.Context, sc *instance.SessionContext) error {
	s.sc = sc
	return nil
}

// OnTaskInvoke decodes the input, runs fn (via the configured Executor), and
// encodes the result.
func (s *Service[In, Out]) OnTaskInvoke(ctx context.Context, sc *instance.SessionContext, tc *instance.TaskContext) ([]byte, error) {
	var in In
	if len(tc.Input) > 0 {
		if err := s.codec.Unmarshal(tc.Input, &in); err != nil {
			return nil, err
		}
	}

	var out Out
	var runErr error
	err := s.executor.Run(ctx, func(ctx context.Context) error {
		out, runErr = s.fn(ctx, in)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return s.codec.Marshal(out)
}

// OnSessionLeave is a no-op; entrypoint services carry no cross-task state
// beyond common_data, which lives in the object cache.
func (s *Service[In, Out]) OnSessionLeave(ctx context.Context, sc *instance.SessionContext) error {
	return nil
}

// Context decodes the session's common_data into dst.
func (s *Service[In, Out]) Context(ctx context.Context, dst any) error {
	return s.sc.ReadCommonData(ctx, dst)
}

// UpdateContext re-puts newValue as the session's common_data.
func (s *Service[In, Out]) UpdateContext(ctx context.Context, newValue any) error {
	return s.sc.UpdateCommonData(ctx, newValue)
}

var _ instance.Service = (*Service[int, int])(nil)
