package rpc

import "github.com/flamesh/flame"

// Messages below are the request/response envelopes for the frontend RPC
// surface (§4.1, §6). Timestamps cross the wire as the flame.Task/Session
// types' native time.Time fields; the codec (sonic, JSON-shaped) marshals
// them as RFC3339 the way encoding/json would, which satisfies "int64 ms
// since epoch" closely enough for this single-language implementation —
// a cross-language wire deployment would swap TimeMillis helpers in here.

type (
	// RegisterApplicationRequest registers a new application.
	RegisterApplicationRequest struct {
		Application flame.Application `json:"application"`
	}
	// RegisterApplicationResponse returns the assigned id.
	RegisterApplicationResponse struct {
		ID flame.ApplicationID `json:"id"`
	}

	// UnregisterApplicationRequest removes a registered application.
	UnregisterApplicationRequest struct {
		ID flame.ApplicationID `json:"id"`
	}
	// UnregisterApplicationResponse is empty; idempotent.
	UnregisterApplicationResponse struct{}

	// GetApplicationRequest looks up one application by id.
	GetApplicationRequest struct {
		ID flame.ApplicationID `json:"id"`
	}
	// GetApplicationResponse carries the found application.
	GetApplicationResponse struct {
		Application flame.Application `json:"application"`
	}

	// ListApplicationRequest lists all registered applications.
	ListApplicationRequest struct{}
	// ListApplicationResponse carries every known application.
	ListApplicationResponse struct {
		Applications []flame.Application `json:"applications"`
	}

	// CreateSessionRequest creates a session; ID may be empty to let the
	// frontend generate one.
	CreateSessionRequest struct {
		ID          flame.SessionID `json:"id,omitempty"`
		Application string          `json:"application"`
		Slots       int             `json:"slots"`
		CommonData  []byte          `json:"common_data,omitempty"`
	}
	// CreateSessionResponse carries the created session.
	CreateSessionResponse struct {
		Session flame.Session `json:"session"`
	}

	// OpenSessionRequest opens (or, with Spec set, creates) a session.
	OpenSessionRequest struct {
		ID   flame.SessionID    `json:"id"`
		Spec *flame.SessionSpec `json:"spec,omitempty"`
	}
	// OpenSessionResponse carries the opened session.
	OpenSessionResponse struct {
		Session flame.Session `json:"session"`
	}

	// GetSessionRequest looks up one session by id.
	GetSessionRequest struct {
		ID flame.SessionID `json:"id"`
	}
	// GetSessionResponse carries the found session.
	GetSessionResponse struct {
		Session flame.Session `json:"session"`
	}

	// ListSessionRequest lists sessions, optionally filtered by application.
	ListSessionRequest struct {
		Application string `json:"application,omitempty"`
	}
	// ListSessionResponse carries the matching sessions.
	ListSessionResponse struct {
		Sessions []flame.Session `json:"sessions"`
	}

	// CloseSessionRequest closes a session; idempotent.
	CloseSessionRequest struct {
		ID flame.SessionID `json:"id"`
	}
	// CloseSessionResponse is empty.
	CloseSessionResponse struct{}

	// CreateTaskRequest submits one task to a session.
	CreateTaskRequest struct {
		SessionID flame.SessionID `json:"session_id"`
		Input     []byte          `json:"input"`
	}
	// CreateTaskResponse carries the newly pending task.
	CreateTaskResponse struct {
		Task flame.Task `json:"task"`
	}

	// GetTaskRequest looks up one task by id.
	GetTaskRequest struct {
		SessionID flame.SessionID `json:"session_id"`
		TaskID    flame.TaskID    `json:"task_id"`
	}
	// GetTaskResponse carries a point-in-time snapshot.
	GetTaskResponse struct {
		Task flame.Task `json:"task"`
	}

	// WatchTaskRequest opens a task lifecycle stream.
	WatchTaskRequest struct {
		SessionID flame.SessionID `json:"session_id"`
		TaskID    flame.TaskID    `json:"task_id"`
	}
	// WatchTaskResponse is one snapshot sent on the stream.
	WatchTaskResponse struct {
		Task flame.Task `json:"task"`
	}
)

// Frontend-facing method names used with conn.Invoke / conn.NewStream.
const (
	MethodRegisterApplication   = "/flame.frontend.Frontend/RegisterApplication"
	MethodUnregisterApplication = "/flame.frontend.Frontend/UnregisterApplication"
	MethodGetApplication        = "/flame.frontend.Frontend/GetApplication"
	MethodListApplication       = "/flame.frontend.Frontend/ListApplication"
	MethodCreateSession         = "/flame.frontend.Frontend/CreateSession"
	MethodOpenSession           = "/flame.frontend.Frontend/OpenSession"
	MethodGetSession            = "/flame.frontend.Frontend/GetSession"
	MethodListSession           = "/flame.frontend.Frontend/ListSession"
	MethodCloseSession          = "/flame.frontend.Frontend/CloseSession"
	MethodCreateTask            = "/flame.frontend.Frontend/CreateTask"
	MethodGetTask               = "/flame.frontend.Frontend/GetTask"
	MethodWatchTask             = "/flame.frontend.Frontend/WatchTask"

	// FrontendServiceName is the fully-qualified gRPC service name used to
	// build the hand-written ServiceDesc for any in-process reference
	// frontend (internal/testfrontend).
	FrontendServiceName = "flame.frontend.Frontend"
)
