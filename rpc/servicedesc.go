package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// UnaryHandler is the shape every hand-written unary method handler takes:
// decode into in, run the business logic, return the response to encode.
type UnaryHandler func(ctx context.Context, in any, newIn func() any) (any, error)

// unaryMethod adapts a concrete (reqFactory, handler) pair into the
// grpc.methodHandler signature grpc.Server expects, replacing what protoc
// would normally generate for a single RPC.
func unaryMethod(newReq func() any, handler UnaryHandler) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return handler(ctx, in, newReq)
		}
		info := &grpc.UnaryServerInfo{Server: srv}
		wrapped := func(ctx context.Context, req any) (any, error) {
			return handler(ctx, req, newReq)
		}
		return interceptor(ctx, in, info, wrapped)
	}
}

// methodSuffix strips a full method path like
// "/flame.frontend.Frontend/RegisterApplication" down to "RegisterApplication".
// grpc.Server splits an incoming call's full method into service + method and
// looks the method name up in the service's own method map, so a
// grpc.MethodDesc/grpc.StreamDesc registered under the full path is never
// found; callers may pass either form here.
func methodSuffix(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

// NewUnaryMethod builds a grpc.MethodDesc for method name (full path or bare
// suffix — methodSuffix normalizes either) using newReq to allocate a fresh
// request value and handler to run it. The server value later passed to
// grpc.Server.RegisterService is not used by handler because
// Flame's harness binds behavior via closures rather than method receivers,
// matching how the pack's hand-rolled clients
// (features/stream/pulse/clients/pulse) prefer closures over reflection.
func NewUnaryMethod(name string, newReq func() any, handler func(ctx context.Context, in any) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: methodSuffix(name),
		Handler: unaryMethod(newReq, func(ctx context.Context, in any, _ func() any) (any, error) {
			return handler(ctx, in)
		}),
	}
}

// ServerStreamHandler handles one server-streaming RPC: decode the single
// client request, then push zero or more responses via send before
// returning (nil to close cleanly, non-nil to close with error/status).
type ServerStreamHandler func(ctx context.Context, req any, send func(resp any) error) error

// NewServerStreamMethod builds a grpc.StreamDesc for a server-streaming
// method, given a request factory and handler.
func NewServerStreamMethod(name string, newReq func() any, handler ServerStreamHandler) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    methodSuffix(name),
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			req := newReq()
			if err := stream.RecvMsg(req); err != nil {
				return err
			}
			return handler(stream.Context(), req, func(resp any) error {
				return stream.SendMsg(resp)
			})
		},
	}
}
