package instance

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"google.golang.org/grpc"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/objectcache"
	"github.com/flamesh/flame/rpc"
	"github.com/flamesh/flame/telemetry"
)

// Harness is the long-running worker process described in §4.4. It serves
// one local-socket RPC endpoint and dispatches OnSessionEnter/OnTaskInvoke/
// OnSessionLeave to a user Service. A single instance dispatches strictly
// serially: it never services two calls concurrently, matching "the harness
// does not dispatch tasks in parallel within one instance" (§5).
type Harness struct {
	svc    Service
	cache  *objectcache.Client
	codec  objectcache.Codec
	logger telemetry.Logger

	mu       sync.Mutex
	sessions map[flame.SessionID]*SessionContext

	server *grpc.Server
	events *EventBus
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger supplies a Logger; defaults to a noop logger.
func WithLogger(l telemetry.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithEventBus makes the harness publish a lifecycle event to bus on every
// successful OnSessionEnter/OnTaskInvoke/OnSessionLeave call; calls that fail
// publish nothing. Off by default.
func WithEventBus(bus *EventBus) Option {
	return func(h *Harness) { h.events = bus }
}

// New constructs a Harness that dispatches to svc, fetching/updating
// common_data and large payloads through cache.
func New(svc Service, cache *objectcache.Client, opts ...Option) *Harness {
	h := &Harness{
		svc:      svc,
		cache:    cache,
		codec:    objectcache.DefaultCodec,
		logger:   telemetry.NewNoopLogger(),
		sessions: make(map[flame.SessionID]*SessionContext),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve builds the grpc.Server and blocks accepting connections on lis until
// the context is cancelled, at which point it stops the listener and lets
// any in-flight call finish (§5 "client and harness perform a best-effort
// graceful shutdown").
func (h *Harness) Serve(ctx context.Context, lis net.Listener) error {
	// The sonic-json codec is registered globally (rpc.init) and selected
	// per-call by the client's CallContentSubtype, so the server needs no
	// codec override here. The interceptor holds one lock across every
	// handler so calls are dispatched to the Service one at a time.
	var dispatchMu sync.Mutex
	h.server = grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		dispatchMu.Lock()
		defer dispatchMu.Unlock()
		return handler(ctx, req)
	}))
	h.server.RegisterService(h.serviceDesc(), h)

	if os.Getenv("FLAME_MUX") == "1" {
		lis = newMuxListener(lis)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.server.Serve(lis) }()

	select {
	case <-ctx.Done():
		h.server.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop forcibly stops the server, aborting any in-flight call.
func (h *Harness) Stop() {
	if h.server != nil {
		h.server.Stop()
	}
}

func (h *Harness) serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: rpc.HarnessServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			rpc.NewUnaryMethod(rpc.MethodOnSessionEnter, func() any { return &rpc.OnSessionEnterRequest{} }, h.handleOnSessionEnter),
			rpc.NewUnaryMethod(rpc.MethodOnTaskInvoke, func() any { return &rpc.OnTaskInvokeRequest{} }, h.handleOnTaskInvoke),
			rpc.NewUnaryMethod(rpc.MethodOnSessionLeave, func() any { return &rpc.OnSessionLeaveRequest{} }, h.handleOnSessionLeave),
		},
	}
}

func (h *Harness) handleOnSessionEnter(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.OnSessionEnterRequest)

	var app flame.Application
	if len(req.ApplicationDescriptor) > 0 {
		if err := h.codec.Unmarshal(req.ApplicationDescriptor, &app); err != nil {
			return nil, fmt.Errorf("decode application descriptor: %w", err)
		}
	}
	ref, err := flame.DecodeObjectRef(req.CommonDataRef)
	if err != nil {
		return &rpc.OnSessionEnterResponse{ReturnCode: 1, Message: err.Error()}, nil
	}

	sid := flame.SessionID(req.SessionID)
	sc := newSessionContext(sid, app, ref, h.cache, h.codec)

	h.mu.Lock()
	h.sessions[sid] = sc
	h.mu.Unlock()

	if err := h.svc.OnSessionEnter(ctx, sc); err != nil {
		h.logger.Error(ctx, "on_session_enter failed", "session_id", sid, "error", err)
		return &rpc.OnSessionEnterResponse{ReturnCode: 1, Message: err.Error()}, nil
	}
	h.publish(ctx, "session_enter", sid)
	return &rpc.OnSessionEnterResponse{ReturnCode: 0}, nil
}

// publish best-effort forwards a lifecycle event when an EventBus is
// configured; a nil bus (the default) makes this a no-op.
func (h *Harness) publish(ctx context.Context, event string, sid flame.SessionID) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, event, []byte(sid)); err != nil {
		h.logger.Error(ctx, "event bus publish failed", "event", event, "session_id", sid, "error", err)
	}
}

func (h *Harness) handleOnTaskInvoke(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.OnTaskInvokeRequest)
	sid := flame.SessionID(req.SessionID)

	h.mu.Lock()
	sc, ok := h.sessions[sid]
	h.mu.Unlock()
	if !ok {
		return &rpc.OnTaskInvokeResponse{ReturnCode: 1, Message: fmt.Sprintf("unknown session %s", sid)}, nil
	}

	tc := &TaskContext{TaskID: flame.TaskID(req.TaskID), SessionID: sid, Input: req.Input}
	output, err := h.svc.OnTaskInvoke(ctx, sc, tc)
	if err != nil {
		h.logger.Error(ctx, "on_task_invoke failed", "session_id", sid, "task_id", tc.TaskID, "error", err)
		return &rpc.OnTaskInvokeResponse{ReturnCode: 1, Message: err.Error()}, nil
	}
	h.publish(ctx, "task_invoke", sid)
	return &rpc.OnTaskInvokeResponse{ReturnCode: 0, Output: output}, nil
}

func (h *Harness) handleOnSessionLeave(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.OnSessionLeaveRequest)
	sid := flame.SessionID(req.SessionID)

	h.mu.Lock()
	sc, ok := h.sessions[sid]
	delete(h.sessions, sid)
	h.mu.Unlock()
	if !ok {
		return &rpc.OnSessionLeaveResponse{ReturnCode: 1, Message: fmt.Sprintf("unknown session %s", sid)}, nil
	}

	if err := h.svc.OnSessionLeave(ctx, sc); err != nil {
		h.logger.Error(ctx, "on_session_leave failed", "session_id", sid, "error", err)
		return &rpc.OnSessionLeaveResponse{ReturnCode: 1, Message: err.Error()}, nil
	}
	h.publish(ctx, "session_leave", sid)
	return &rpc.OnSessionLeaveResponse{ReturnCode: 0}, nil
}

// SockEnv reads the well-known environment variable advertising the local
// socket path (§6 "Worker endpoint"). Returns "" if unset, which callers
// interpret as "start the debug HTTP listener instead" (§4.4).
func SockEnv(envVar string) string {
	return os.Getenv(envVar)
}
