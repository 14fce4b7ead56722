package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// CallOptions forces the sonic-json codec so callers never have to remember
// the content-subtype on every Invoke/NewStream call.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}

// Invoke performs a unary RPC over conn, marshaling req and unmarshaling
// into resp via the sonic-json codec.
func Invoke(ctx context.Context, conn *grpc.ClientConn, method string, req, resp any) error {
	return conn.Invoke(ctx, method, req, resp, CallOptions()...)
}

// ServerStreamDesc describes a server-streaming method for NewStream.
var ServerStreamDesc = &grpc.StreamDesc{
	StreamName:    "ServerStream",
	ServerStreams: true,
}

// OpenServerStream opens a server-streaming call on conn and sends req as
// the single client message, returning the grpc.ClientStream callers
// receive WatchTaskResponse messages from via RecvMsg.
func OpenServerStream(ctx context.Context, conn *grpc.ClientConn, method string, req any) (grpc.ClientStream, error) {
	stream, err := conn.NewStream(ctx, ServerStreamDesc, method, CallOptions()...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return stream, nil
}
