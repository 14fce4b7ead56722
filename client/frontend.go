package client

import (
	"context"

	"google.golang.org/grpc"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/rpc"
)

// frontendStub wraps the hand-written RPC surface (§4.1) the rest of the
// client package drives. It holds no state beyond the ClientConn; every
// method is a thin marshal/unmarshal wrapper, matching the shape of
// runtime/registry.GRPCClientAdapter in the teacher.
type frontendStub struct {
	conn *grpc.ClientConn
}

func (f *frontendStub) RegisterApplication(ctx context.Context, app flame.Application) (flame.ApplicationID, error) {
	var resp rpc.RegisterApplicationResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodRegisterApplication, &rpc.RegisterApplicationRequest{Application: app}, &resp)
	if err != nil {
		return "", wrapTransport(err, "register application")
	}
	return resp.ID, nil
}

func (f *frontendStub) UnregisterApplication(ctx context.Context, id flame.ApplicationID) error {
	var resp rpc.UnregisterApplicationResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodUnregisterApplication, &rpc.UnregisterApplicationRequest{ID: id}, &resp)
	return wrapTransport(err, "unregister application")
}

func (f *frontendStub) GetApplication(ctx context.Context, id flame.ApplicationID) (flame.Application, error) {
	var resp rpc.GetApplicationResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodGetApplication, &rpc.GetApplicationRequest{ID: id}, &resp)
	if err != nil {
		return flame.Application{}, wrapTransport(err, "get application")
	}
	return resp.Application, nil
}

func (f *frontendStub) ListApplication(ctx context.Context) ([]flame.Application, error) {
	var resp rpc.ListApplicationResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodListApplication, &rpc.ListApplicationRequest{}, &resp)
	if err != nil {
		return nil, wrapTransport(err, "list application")
	}
	return resp.Applications, nil
}

func (f *frontendStub) CreateSession(ctx context.Context, req rpc.CreateSessionRequest) (flame.Session, error) {
	var resp rpc.CreateSessionResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodCreateSession, &req, &resp)
	if err != nil {
		return flame.Session{}, wrapTransport(err, "create session")
	}
	return resp.Session, nil
}

func (f *frontendStub) OpenSession(ctx context.Context, req rpc.OpenSessionRequest) (flame.Session, error) {
	var resp rpc.OpenSessionResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodOpenSession, &req, &resp)
	if err != nil {
		return flame.Session{}, wrapTransport(err, "open session")
	}
	return resp.Session, nil
}

func (f *frontendStub) GetSession(ctx context.Context, id flame.SessionID) (flame.Session, error) {
	var resp rpc.GetSessionResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodGetSession, &rpc.GetSessionRequest{ID: id}, &resp)
	if err != nil {
		return flame.Session{}, wrapTransport(err, "get session")
	}
	return resp.Session, nil
}

func (f *frontendStub) ListSession(ctx context.Context, application string) ([]flame.Session, error) {
	var resp rpc.ListSessionResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodListSession, &rpc.ListSessionRequest{Application: application}, &resp)
	if err != nil {
		return nil, wrapTransport(err, "list session")
	}
	return resp.Sessions, nil
}

func (f *frontendStub) CloseSession(ctx context.Context, id flame.SessionID) error {
	var resp rpc.CloseSessionResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodCloseSession, &rpc.CloseSessionRequest{ID: id}, &resp)
	return wrapTransport(err, "close session")
}

func (f *frontendStub) CreateTask(ctx context.Context, sessionID flame.SessionID, input []byte) (flame.Task, error) {
	var resp rpc.CreateTaskResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodCreateTask, &rpc.CreateTaskRequest{SessionID: sessionID, Input: input}, &resp)
	if err != nil {
		return flame.Task{}, wrapTransport(err, "create task")
	}
	return resp.Task, nil
}

func (f *frontendStub) GetTask(ctx context.Context, sessionID flame.SessionID, taskID flame.TaskID) (flame.Task, error) {
	var resp rpc.GetTaskResponse
	err := rpc.Invoke(ctx, f.conn, rpc.MethodGetTask, &rpc.GetTaskRequest{SessionID: sessionID, TaskID: taskID}, &resp)
	if err != nil {
		return flame.Task{}, wrapTransport(err, "get task")
	}
	return resp.Task, nil
}

// watchTask opens the WatchTask server-stream and returns a taskStream that
// yields ordered flame.Task snapshots until the stream closes.
func (f *frontendStub) watchTask(ctx context.Context, sessionID flame.SessionID, taskID flame.TaskID) (*taskStream, error) {
	stream, err := rpc.OpenServerStream(ctx, f.conn, rpc.MethodWatchTask, &rpc.WatchTaskRequest{SessionID: sessionID, TaskID: taskID})
	if err != nil {
		return nil, wrapTransport(err, "watch task")
	}
	return &taskStream{stream: stream}, nil
}

func wrapTransport(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := flame.AsError(err); ok {
		return err
	}
	return flame.Wrap(flame.CodeInternal, err, "%s", op)
}
