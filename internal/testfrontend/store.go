// Package testfrontend is an in-memory reference implementation of the
// frontend RPC surface (§4.1), used to exercise client and instance harness
// code in tests without a real frontend deployment. It is not part of the
// public SDK surface.
package testfrontend

import (
	"sync"
	"time"

	"github.com/flamesh/flame"
)

// Store holds applications, sessions, and tasks, and fans task updates out
// to watchers. It implements the same state machine contract spec.md §3
// describes: a session freezes its counters once closed, and a task's
// Succeed/Failed states are absorbing.
type Store struct {
	mu sync.Mutex

	apps     map[flame.ApplicationID]flame.Application
	sessions map[flame.SessionID]*flame.Session
	tasks    map[flame.SessionID]map[flame.TaskID]*flame.Task

	watchers map[flame.TaskID][]chan flame.Task
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		apps:     make(map[flame.ApplicationID]flame.Application),
		sessions: make(map[flame.SessionID]*flame.Session),
		tasks:    make(map[flame.SessionID]map[flame.TaskID]*flame.Task),
		watchers: make(map[flame.TaskID][]chan flame.Task),
	}
}

// RegisterApplication stores app under a fresh id.
func (s *Store) RegisterApplication(app flame.Application) flame.ApplicationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := flame.ApplicationID(flame.NewID(app.Name))
	app.State = flame.ApplicationEnabled
	s.apps[id] = app
	return id
}

// UnregisterApplication removes app, idempotently.
func (s *Store) UnregisterApplication(id flame.ApplicationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apps, id)
}

// GetApplication looks up one application.
func (s *Store) GetApplication(id flame.ApplicationID) (flame.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	return app, ok
}

// ListApplication returns every registered application.
func (s *Store) ListApplication() []flame.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]flame.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	return out
}

// CreateSession opens a brand-new session.
func (s *Store) CreateSession(id flame.SessionID, application string, slots int) *flame.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = flame.SessionID(flame.NewID(application))
	}
	sess := &flame.Session{
		ID:           id,
		Application:  application,
		Slots:        slots,
		State:        flame.SessionOpen,
		CreationTime: time.Now(),
	}
	s.sessions[id] = sess
	s.tasks[id] = make(map[flame.TaskID]*flame.Task)
	return cloneSession(sess)
}

// GetSession looks up one session.
func (s *Store) GetSession(id flame.SessionID) (flame.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return flame.Session{}, false
	}
	return *cloneSession(sess), true
}

// ListSession returns sessions, optionally filtered by application.
func (s *Store) ListSession(application string) []flame.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]flame.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if application != "" && sess.Application != application {
			continue
		}
		out = append(out, *cloneSession(sess))
	}
	return out
}

// CloseSession closes a session; idempotent. Counters freeze in place.
func (s *Store) CloseSession(id flame.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.State == flame.SessionClosed {
		return
	}
	now := time.Now()
	sess.State = flame.SessionClosed
	sess.CompletionTime = &now
}

// CreateTask submits a new pending task to session.
func (s *Store) CreateTask(sessionID flame.SessionID, input []byte) (flame.Task, *flame.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return flame.Task{}, flame.Errorf(flame.CodeNotFound, "session %s not found", sessionID)
	}
	if sess.State == flame.SessionClosed {
		return flame.Task{}, flame.Errorf(flame.CodeInvalidState, "session %s is closed", sessionID)
	}
	task := &flame.Task{
		ID:           flame.TaskID(flame.NewID("task")),
		SessionID:    sessionID,
		State:        flame.TaskPending,
		CreationTime: time.Now(),
		Input:        input,
	}
	s.tasks[sessionID][task.ID] = task
	sess.Counters.Pending++
	return *cloneTask(task), nil
}

// GetTask returns the current snapshot of one task.
func (s *Store) GetTask(sessionID flame.SessionID, taskID flame.TaskID) (flame.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[sessionID][taskID]
	if !ok {
		return flame.Task{}, false
	}
	return *cloneTask(task), true
}

// Watch registers a channel that receives every subsequent snapshot of
// taskID, starting from its current state. The channel is closed once the
// task reaches a terminal state.
func (s *Store) Watch(sessionID flame.SessionID, taskID flame.TaskID) (<-chan flame.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[sessionID][taskID]
	if !ok {
		return nil, false
	}
	ch := make(chan flame.Task, 8)
	ch <- *cloneTask(task)
	if task.State.IsTerminal() {
		close(ch)
		return ch, true
	}
	s.watchers[taskID] = append(s.watchers[taskID], ch)
	return ch, true
}

// Transition advances a task's state and appends an event, notifying
// watchers and updating session counters. Used by a harness-driving test
// double to simulate worker progress.
func (s *Store) Transition(sessionID flame.SessionID, taskID flame.TaskID, state flame.TaskState, event flame.Event, output []byte) {
	s.mu.Lock()
	task, ok := s.tasks[sessionID][taskID]
	if !ok || task.State.IsTerminal() {
		s.mu.Unlock()
		return
	}
	from := task.State
	task.State = state
	task.Events = append(task.Events, event)
	if output != nil {
		task.Output = output
	}
	if state.IsTerminal() {
		now := time.Now()
		task.CompletionTime = &now
	}

	if sess, ok := s.sessions[sessionID]; ok && from != state && sess.State != flame.SessionClosed {
		adjustCounters(&sess.Counters, from, state)
	}

	snap := *cloneTask(task)
	watchers := s.watchers[taskID]
	if state.IsTerminal() {
		delete(s.watchers, taskID)
	}
	s.mu.Unlock()

	for _, ch := range watchers {
		ch <- snap
		if state.IsTerminal() {
			close(ch)
		}
	}
}

func adjustCounters(c *flame.SessionCounters, from, to flame.TaskState) {
	dec := func(s flame.TaskState) {
		switch s {
		case flame.TaskPending:
			c.Pending--
		case flame.TaskRunning:
			c.Running--
		}
	}
	inc := func(s flame.TaskState) {
		switch s {
		case flame.TaskPending:
			c.Pending++
		case flame.TaskRunning:
			c.Running++
		case flame.TaskSucceed:
			c.Succeed++
		case flame.TaskFailed:
			c.Failed++
		}
	}
	dec(from)
	inc(to)
}

// FirstPendingTask polls until sessionID has at least one task and returns
// the first one found, by creation time. It gives up after two seconds and
// then returns a zero Task. Intended for tests driving a simulated worker
// against tasks the client created concurrently.
func (s *Store) FirstPendingTask(sessionID flame.SessionID) flame.Task {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		tasks := s.tasks[sessionID]
		var earliest *flame.Task
		for _, t := range tasks {
			if earliest == nil || t.CreationTime.Before(earliest.CreationTime) {
				earliest = t
			}
		}
		s.mu.Unlock()
		if earliest != nil {
			return *cloneTask(earliest)
		}
		time.Sleep(time.Millisecond)
	}
	return flame.Task{}
}

func cloneSession(s *flame.Session) *flame.Session {
	cp := *s
	return &cp
}

func cloneTask(t *flame.Task) *flame.Task {
	cp := *t
	cp.Events = append([]flame.Event(nil), t.Events...)
	return &cp
}
