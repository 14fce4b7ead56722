package testfrontend

import (
	"context"

	"google.golang.org/grpc"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/rpc"
)

// Server exposes a Store over the hand-written Frontend ServiceDesc (§4.1),
// so client and instance code can be driven against an in-process grpc.Server
// (typically via grpc/test/bufconn in tests) rather than a real deployment.
type Server struct {
	store *Store
}

// NewServer wraps store for registration on a *grpc.Server.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Register attaches the Frontend service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(s.serviceDesc(), s)
}

func (s *Server) serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: rpc.FrontendServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			rpc.NewUnaryMethod(rpc.MethodRegisterApplication, func() any { return new(rpc.RegisterApplicationRequest) }, s.registerApplication),
			rpc.NewUnaryMethod(rpc.MethodUnregisterApplication, func() any { return new(rpc.UnregisterApplicationRequest) }, s.unregisterApplication),
			rpc.NewUnaryMethod(rpc.MethodGetApplication, func() any { return new(rpc.GetApplicationRequest) }, s.getApplication),
			rpc.NewUnaryMethod(rpc.MethodListApplication, func() any { return new(rpc.ListApplicationRequest) }, s.listApplication),
			rpc.NewUnaryMethod(rpc.MethodCreateSession, func() any { return new(rpc.CreateSessionRequest) }, s.createSession),
			rpc.NewUnaryMethod(rpc.MethodOpenSession, func() any { return new(rpc.OpenSessionRequest) }, s.openSession),
			rpc.NewUnaryMethod(rpc.MethodGetSession, func() any { return new(rpc.GetSessionRequest) }, s.getSession),
			rpc.NewUnaryMethod(rpc.MethodListSession, func() any { return new(rpc.ListSessionRequest) }, s.listSession),
			rpc.NewUnaryMethod(rpc.MethodCloseSession, func() any { return new(rpc.CloseSessionRequest) }, s.closeSession),
			rpc.NewUnaryMethod(rpc.MethodCreateTask, func() any { return new(rpc.CreateTaskRequest) }, s.createTask),
			rpc.NewUnaryMethod(rpc.MethodGetTask, func() any { return new(rpc.GetTaskRequest) }, s.getTask),
		},
		Streams: []grpc.StreamDesc{
			rpc.NewServerStreamMethod(rpc.MethodWatchTask, func() any { return new(rpc.WatchTaskRequest) }, s.watchTask),
		},
	}
}

func (s *Server) registerApplication(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.RegisterApplicationRequest)
	id := s.store.RegisterApplication(req.Application)
	return &rpc.RegisterApplicationResponse{ID: id}, nil
}

func (s *Server) unregisterApplication(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.UnregisterApplicationRequest)
	s.store.UnregisterApplication(req.ID)
	return &rpc.UnregisterApplicationResponse{}, nil
}

func (s *Server) getApplication(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.GetApplicationRequest)
	app, ok := s.store.GetApplication(req.ID)
	if !ok {
		return nil, flame.Errorf(flame.CodeNotFound, "application %s not found", req.ID)
	}
	return &rpc.GetApplicationResponse{Application: app}, nil
}

func (s *Server) listApplication(ctx context.Context, in any) (any, error) {
	return &rpc.ListApplicationResponse{Applications: s.store.ListApplication()}, nil
}

func (s *Server) createSession(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.CreateSessionRequest)
	sess := s.store.CreateSession(req.ID, req.Application, req.Slots)
	return &rpc.CreateSessionResponse{Session: *sess}, nil
}

func (s *Server) openSession(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.OpenSessionRequest)
	if existing, ok := s.store.GetSession(req.ID); ok {
		if existing.State == flame.SessionOpen {
			if req.Spec != nil {
				if req.Spec.Application != "" && req.Spec.Application != existing.Application {
					return nil, flame.Errorf(flame.CodeInvalidState, "open session %s: spec mismatch: application %q != %q", req.ID, req.Spec.Application, existing.Application)
				}
				if req.Spec.Slots != 0 && req.Spec.Slots != existing.Slots {
					return nil, flame.Errorf(flame.CodeInvalidState, "open session %s: spec mismatch: slots %d != %d", req.ID, req.Spec.Slots, existing.Slots)
				}
			}
			return &rpc.OpenSessionResponse{Session: existing}, nil
		}
	}
	if req.Spec == nil {
		return nil, flame.Errorf(flame.CodeNotFound, "session %s not found", req.ID)
	}
	sess := s.store.CreateSession(req.ID, req.Spec.Application, req.Spec.Slots)
	return &rpc.OpenSessionResponse{Session: *sess}, nil
}

func (s *Server) getSession(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.GetSessionRequest)
	sess, ok := s.store.GetSession(req.ID)
	if !ok {
		return nil, flame.Errorf(flame.CodeNotFound, "session %s not found", req.ID)
	}
	return &rpc.GetSessionResponse{Session: sess}, nil
}

func (s *Server) listSession(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.ListSessionRequest)
	return &rpc.ListSessionResponse{Sessions: s.store.ListSession(req.Application)}, nil
}

func (s *Server) closeSession(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.CloseSessionRequest)
	s.store.CloseSession(req.ID)
	return &rpc.CloseSessionResponse{}, nil
}

func (s *Server) createTask(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.CreateTaskRequest)
	task, ferr := s.store.CreateTask(req.SessionID, req.Input)
	if ferr != nil {
		return nil, ferr
	}
	return &rpc.CreateTaskResponse{Task: task}, nil
}

func (s *Server) getTask(ctx context.Context, in any) (any, error) {
	req := in.(*rpc.GetTaskRequest)
	task, ok := s.store.GetTask(req.SessionID, req.TaskID)
	if !ok {
		return nil, flame.Errorf(flame.CodeNotFound, "task %s not found", req.TaskID)
	}
	return &rpc.GetTaskResponse{Task: task}, nil
}

func (s *Server) watchTask(ctx context.Context, req any, send func(any) error) error {
	r := req.(*rpc.WatchTaskRequest)
	ch, ok := s.store.Watch(r.SessionID, r.TaskID)
	if !ok {
		return flame.Errorf(flame.CodeNotFound, "task %s not found", r.TaskID)
	}
	for {
		select {
		case snap, open := <-ch:
			if !open {
				return nil
			}
			if err := send(&rpc.WatchTaskResponse{Task: snap}); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
