package client

import (
	"io"

	"google.golang.org/grpc"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/rpc"
)

// taskStream wraps the WatchTask server-stream, yielding ordered snapshots.
type taskStream struct {
	stream grpc.ClientStream
}

// Next blocks for the next snapshot. ok is false once the stream has ended
// (the task reached a terminal state, or the connection was lost — in
// which case err is a wrapped CodeInternal error per §5).
func (t *taskStream) Next() (snap flame.Task, ok bool, err error) {
	var resp rpc.WatchTaskResponse
	recvErr := t.stream.RecvMsg(&resp)
	if recvErr == io.EOF {
		return flame.Task{}, false, nil
	}
	if recvErr != nil {
		return flame.Task{}, false, flame.Wrap(flame.CodeInternal, recvErr, "watch task stream")
	}
	return resp.Task, true, nil
}

// Close ends the client's interest in the stream; closing does not cancel
// the task at the frontend.
func (t *taskStream) Close() {
	_ = t.stream.CloseSend()
}
