package instance

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/objectcache"
)

// DebugServer is the local development alternative described in §4.4: when
// the worker socket environment variable is absent, the harness starts this
// small HTTP listener instead. It maps POST /{entrypoint_name} to the same
// on_task_invoke path used in production, with no scheduler, no cache, and
// no session semantics beyond one synthetic session created at startup.
type DebugServer struct {
	svc       Service
	sessionID flame.SessionID
	sc        *SessionContext
	mux       *http.ServeMux
}

// NewDebugServer constructs a DebugServer that registers one path per
// declared entrypoint name, each invoking svc against a synthetic session.
func NewDebugServer(svc Service, app flame.Application, entrypointNames []string) (*DebugServer, error) {
	sessionID := flame.SessionID(flame.NewID("debug-session"))
	sc := newSessionContext(sessionID, app, &flame.ObjectRef{}, objectcache.New(""), objectcache.DefaultCodec)

	d := &DebugServer{svc: svc, sessionID: sessionID, sc: sc, mux: http.NewServeMux()}
	ctx := context.Background()
	if err := svc.OnSessionEnter(ctx, sc); err != nil {
		return nil, fmt.Errorf("debug server on_session_enter: %w", err)
	}
	for _, name := range entrypointNames {
		d.mux.HandleFunc("/"+name, d.handleInvoke)
	}
	return d, nil
}

func (d *DebugServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	input, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	taskID := flame.TaskID(flame.NewID("debug-task"))
	tc := &TaskContext{TaskID: taskID, SessionID: d.sessionID, Input: input}

	output, err := d.svc.OnTaskInvoke(r.Context(), d.sc, tc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(output)
}

// Handler returns the http.Handler to mount on a net/http.Server.
func (d *DebugServer) Handler() http.Handler { return d.mux }

// Close runs on_session_leave for the synthetic session.
func (d *DebugServer) Close(ctx context.Context) error {
	return d.svc.OnSessionLeave(ctx, d.sc)
}
