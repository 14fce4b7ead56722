package client

import (
	"context"
	"sync"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/rpc"
)

// Session holds one live context bound to an application (§4.3). All
// exported methods are safe for concurrent use; informer callbacks are
// serialized under mu so a single Informer never observes interleaved
// snapshots from concurrent invocations.
type Session struct {
	conn *Connection
	id   flame.SessionID
	app  string

	mu         sync.Mutex
	commonData *flame.ObjectRef
}

// OpenSession opens an existing session by id, or creates one matching spec
// if none is open yet (§4.1 OpenSession: spec must match exactly against an
// already-open session of the same id).
func OpenSession(ctx context.Context, conn *Connection, id flame.SessionID, spec *flame.SessionSpec) (*Session, error) {
	sess, err := conn.frontend.OpenSession(ctx, rpc.OpenSessionRequest{ID: id, Spec: spec})
	if err != nil {
		return nil, err
	}
	return newSession(conn, sess), nil
}

// CreateSession creates a brand-new session for application.
func CreateSession(ctx context.Context, conn *Connection, application string, slots int, commonData []byte) (*Session, error) {
	sess, err := conn.frontend.CreateSession(ctx, rpc.CreateSessionRequest{
		Application: application,
		Slots:       slots,
		CommonData:  commonData,
	})
	if err != nil {
		return nil, err
	}
	return newSession(conn, sess), nil
}

func newSession(conn *Connection, sess flame.Session) *Session {
	return &Session{
		conn:       conn,
		id:         sess.ID,
		app:        sess.Application,
		commonData: sess.CommonData,
	}
}

// ID returns the session's id.
func (s *Session) ID() flame.SessionID { return s.id }

// CommonData fetches and decodes the session's shared common_data object
// into dst. Returns nil without touching dst if the session has none.
func (s *Session) CommonData(ctx context.Context, dst any) error {
	s.mu.Lock()
	ref := s.commonData
	s.mu.Unlock()
	if ref == nil {
		return nil
	}
	return s.conn.cache.GetObject(ctx, ref, dst, s.conn.codec)
}

// CreateTask submits input as a new task and returns its initial (pending)
// snapshot (§4.3 step 1, §4.1 CreateTask).
func (s *Session) CreateTask(ctx context.Context, input []byte) (flame.Task, error) {
	return s.conn.frontend.CreateTask(ctx, s.id, input)
}

// WatchTask opens the task's lifecycle stream directly, for callers that
// want raw access to ordered snapshots without the Invoke/Run protocol.
func (s *Session) WatchTask(ctx context.Context, taskID flame.TaskID) (*taskStream, error) {
	return s.conn.frontend.watchTask(ctx, s.id, taskID)
}

// Invoke runs the task invocation protocol synchronously: create the task,
// watch it to a terminal state, and return its decoded output or the
// *flame.Error it failed with (§4.3 "Task invocation protocol").
func (s *Session) Invoke(ctx context.Context, input []byte, informer Informer) ([]byte, error) {
	return s.invokeProtocol(ctx, input, informer)
}

// Run submits the task invocation protocol to the connection's worker pool
// and returns immediately with a Future (§4.3 run(), non-blocking).
// Future.Cancel stops watching the task; the task itself is left running at
// the frontend (pinned Open Question).
func (s *Session) Run(input []byte, informer Informer) *Future {
	future, watchCtx := newFuture()

	s.conn.pool.submit(func() {
		output, err := s.invokeProtocol(watchCtx, input, informer)
		future.complete(output, err)
	})

	return future
}

// invokeProtocol implements §4.3's shared task invocation protocol used by
// both Invoke and Run: create the task, open its watch stream, deliver every
// snapshot to informer under the session mutex, and on a terminal snapshot
// either raise the failure event as a *flame.Error or decode and return the
// output.
func (s *Session) invokeProtocol(ctx context.Context, input []byte, informer Informer) ([]byte, error) {
	task, err := s.conn.frontend.CreateTask(ctx, s.id, input)
	if err != nil {
		return nil, err
	}

	stream, err := s.conn.frontend.watchTask(ctx, s.id, task.ID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		snap, ok, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, flame.Errorf(flame.CodeInternal, "watch task %s: stream closed before a terminal state", task.ID)
		}

		if informer != nil {
			s.mu.Lock()
			informer.OnTaskUpdate(snap)
			s.mu.Unlock()
		}

		if !snap.State.IsTerminal() {
			continue
		}

		if snap.State == flame.TaskFailed {
			ev, found := snap.FailureEvent()
			if !found {
				return nil, flame.Errorf(flame.CodeInternal, "task %s failed with no failure event", snap.ID)
			}
			return nil, flame.Errorf(flame.CodeInternal, "%s", ev.Message)
		}

		return s.resolveOutput(ctx, snap)
	}
}

// resolveOutput returns a succeeded task's output bytes, fetching them
// through the object cache when the frontend returned a reference instead
// of inline bytes.
func (s *Session) resolveOutput(ctx context.Context, task flame.Task) ([]byte, error) {
	if task.Output != nil {
		return task.Output, nil
	}
	if task.OutputRef == nil {
		return nil, nil
	}
	return s.conn.cache.GetBytes(ctx, task.OutputRef)
}

// Close closes the session at the frontend (§4.1 CloseSession, idempotent).
func (s *Session) Close(ctx context.Context) error {
	return s.conn.frontend.CloseSession(ctx, s.id)
}
