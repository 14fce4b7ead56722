package runner

import (
	"context"
	"sync"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/instance"
	"github.com/flamesh/flame/objectcache"
)

// Service is the generic runner (§4.6): a prebuilt instance.Service that
// decodes a RunnerContext from common_data and dispatches RunnerRequests
// onto the shared execution object it carries.
type Service struct {
	registry  *Registry
	cache     *objectcache.Client
	codec     objectcache.Codec
	installer *Installer

	mu       sync.Mutex
	sessions map[flame.SessionID]*sessionState
}

type sessionState struct {
	execObj   any
	stateful  bool
	autoscale bool
}

// New constructs a generic runner Service. registry supplies execution
// object factories keyed by application name; cache backs ObjectRef
// resolution and re-puts.
func New(registry *Registry, cache *objectcache.Client, installer *Installer) *Service {
	return &Service{
		registry:  registry,
		cache:     cache,
		codec:     objectcache.DefaultCodec,
		installer: installer,
		sessions:  make(map[flame.SessionID]*sessionState),
	}
}

var _ instance.Service = (*Service)(nil)

// OnSessionEnter resolves the application's code (§4.6 step "on
// on_session_enter") and decodes the session's RunnerContext into a fresh
// execution object from the registry.
func (s *Service) OnSessionEnter(ctx context.Context, sc *instance.SessionContext) error {
	if sc.ApplicationDescriptor.URL != "" {
		if _, err := s.installer.Install(sc.ApplicationDescriptor.URL); err != nil {
			return err
		}
	}

	var rc RunnerContext
	if err := sc.ReadCommonData(ctx, &rc); err != nil {
		return err
	}

	execObj, ok := s.registry.New(sc.ApplicationDescriptor.Name)
	if !ok {
		return flame.Errorf(flame.CodeInvalidConfig, "no execution object registered for application %q", sc.ApplicationDescriptor.Name)
	}
	if len(rc.ExecutionObject) > 0 {
		if err := s.codec.Unmarshal(rc.ExecutionObject, execObj); err != nil {
			return flame.Wrap(flame.CodeInvalidArgument, err, "decode execution object")
		}
	}

	s.mu.Lock()
	s.sessions[sc.SessionID] = &sessionState{execObj: execObj, stateful: rc.Stateful, autoscale: rc.Autoscale}
	s.mu.Unlock()
	return nil
}

// OnTaskInvoke implements §4.6 step "on_task_invoke": decode the request,
// resolve ObjectRef arguments, invoke the target method, persist mutated
// state for stateful sessions, and return the result as an ObjectRef.
func (s *Service) OnTaskInvoke(ctx context.Context, sc *instance.SessionContext, tc *instance.TaskContext) ([]byte, error) {
	s.mu.Lock()
	state, ok := s.sessions[sc.SessionID]
	s.mu.Unlock()
	if !ok {
		return nil, flame.Errorf(flame.CodeInvalidState, "session %s has no execution object", sc.SessionID)
	}

	var req RunnerRequest
	if err := s.codec.Unmarshal(tc.Input, &req); err != nil {
		return nil, flame.Wrap(flame.CodeInvalidArgument, err, "decode runner request")
	}

	args, _, err := resolveArgs(ctx, s.cache, s.codec, req.Args, req.Kwargs)
	if err != nil {
		return nil, err
	}

	target, ferr := resolveTarget(state.execObj, req.Method)
	if ferr != nil {
		return nil, ferr
	}

	result, err := callMethod(target, args)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "execution object call failed")
	}

	if state.stateful {
		newData, err := s.codec.Marshal(state.execObj)
		if err != nil {
			return nil, flame.Wrap(flame.CodeInternal, err, "serialize execution object")
		}
		if err := sc.UpdateCommonData(ctx, RunnerContext{ExecutionObject: newData, Stateful: state.stateful, Autoscale: state.autoscale}); err != nil {
			return nil, err
		}
	}

	ref, err := s.cache.PutObject(ctx, sc.SessionID, result, s.codec)
	if err != nil {
		return nil, err
	}
	return ref.Encode(), nil
}

// OnSessionLeave releases the session's execution object.
func (s *Service) OnSessionLeave(ctx context.Context, sc *instance.SessionContext) error {
	s.mu.Lock()
	delete(s.sessions, sc.SessionID)
	s.mu.Unlock()
	return nil
}
