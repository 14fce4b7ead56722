// Package instance implements the worker-side harness (§4.4): a long-running
// process that serves on_session_enter / on_task_invoke / on_session_leave
// callbacks over a local RPC endpoint and dispatches them to a user-provided
// Service implementation.
package instance

import (
	"context"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/objectcache"
)

// SessionContext is held by the harness for the lifetime of a session and
// shared read-only with user code (§3 SessionContext). read_common_data and
// update_common_data go through the object cache via CommonDataRef.
type SessionContext struct {
	SessionID             flame.SessionID
	ApplicationDescriptor flame.Application
	CommonDataRef         *flame.ObjectRef

	cache *objectcache.Client
	codec objectcache.Codec
}

// newSessionContext constructs a SessionContext bound to the given cache
// client, used by the harness to decode read_common_data/update_common_data.
func newSessionContext(sessionID flame.SessionID, app flame.Application, ref *flame.ObjectRef, cache *objectcache.Client, codec objectcache.Codec) *SessionContext {
	return &SessionContext{
		SessionID:             sessionID,
		ApplicationDescriptor: app,
		CommonDataRef:         ref,
		cache:                 cache,
		codec:                 codec,
	}
}

// ReadCommonData decodes the session's common_data object into dst.
func (sc *SessionContext) ReadCommonData(ctx context.Context, dst any) error {
	if sc.CommonDataRef.IsNull() {
		return nil
	}
	return sc.cache.GetObject(ctx, sc.CommonDataRef, dst, sc.codec)
}

// UpdateCommonData re-puts newValue to the cache under a new version and
// updates CommonDataRef to point at it (§3 SessionContext.update_common_data).
// The update carries CommonDataRef's version; when another instance has
// updated the object since, a cache that enforces versions rejects it and
// the error has CodeInvalidState (see objectcache.Client.UpdateBytes). No
// other fencing is done; callers needing exactly-once semantics must pin
// stateful=false, autoscale=false at the application level.
func (sc *SessionContext) UpdateCommonData(ctx context.Context, newValue any) error {
	ref, err := sc.cache.UpdateObject(ctx, sc.CommonDataRef, newValue, sc.codec)
	if err != nil {
		return err
	}
	sc.CommonDataRef = ref
	return nil
}

// TaskContext is ephemeral: it lives only for the duration of one
// on_task_invoke call (§3 TaskContext).
type TaskContext struct {
	TaskID    flame.TaskID
	SessionID flame.SessionID
	Input     []byte
}
