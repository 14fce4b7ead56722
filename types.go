package flame

import "time"

// Shim enumerates the execution model an Application's instances run under.
type Shim string

const (
	ShimHost Shim = "host"
	ShimGRPC Shim = "grpc"
	ShimStdio Shim = "stdio"
	ShimLog  Shim = "log"
	ShimRest Shim = "rest"
)

// ApplicationState is the registration lifecycle state of an Application.
type ApplicationState string

const (
	ApplicationEnabled  ApplicationState = "enabled"
	ApplicationDisabled ApplicationState = "disabled"
)

// Schema carries optional typing hints for an application's input, output,
// and common_data shapes. The hints are opaque to the core (no schema
// validation is performed here); they exist so tooling built on top of Flame
// can render forms or generate client stubs.
type Schema struct {
	Input      string `json:"input,omitempty"`
	Output     string `json:"output,omitempty"`
	CommonData string `json:"common_data,omitempty"`
}

// Application is a registered unit of executable code the frontend can
// instantiate.
type Application struct {
	Name             string            `json:"name"`
	Shim             Shim              `json:"shim"`
	Image            string            `json:"image,omitempty"`
	Command          string            `json:"command,omitempty"`
	Arguments        []string          `json:"arguments,omitempty"`
	Environments     map[string]string `json:"environments,omitempty"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	URL              string            `json:"url,omitempty"`
	MaxInstances     int               `json:"max_instances,omitempty"`
	DelayRelease     time.Duration     `json:"delay_release,omitempty"`
	Schema           *Schema           `json:"schema,omitempty"`
	Description      string            `json:"description,omitempty"`
	Labels           []string          `json:"labels,omitempty"`
	State            ApplicationState  `json:"state"`
}

// SessionState is the lifecycle state of a Session.
type SessionState string

const (
	SessionOpen   SessionState = "open"
	SessionClosed SessionState = "closed"
)

// SessionCounters tracks per-state task counts for a session. Frozen once
// the session is closed.
type SessionCounters struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
	Succeed int `json:"succeed"`
	Failed  int `json:"failed"`
}

// Session is a live context bound to an application.
type Session struct {
	ID             SessionID       `json:"id"`
	Application    string          `json:"application"`
	Slots          int             `json:"slots"`
	State          SessionState    `json:"state"`
	CreationTime   time.Time       `json:"creation_time"`
	CompletionTime *time.Time      `json:"completion_time,omitempty"`
	Counters       SessionCounters `json:"counters"`
	CommonData     *ObjectRef      `json:"common_data,omitempty"`
}

// SessionSpec is the shape a caller hands to CreateSession/OpenSession; it
// pins the fields that OpenSession must match exactly against an existing
// open session (§4.1 OpenSession).
type SessionSpec struct {
	Application string
	Slots       int
	CommonData  []byte
}

// TaskState is the lifecycle state of a Task. Succeed and Failed are
// absorbing (terminal) states.
type TaskState string

const (
	TaskPending TaskState = "pending"
	TaskRunning TaskState = "running"
	TaskSucceed TaskState = "succeed"
	TaskFailed  TaskState = "failed"
)

// IsTerminal reports whether s is one of the absorbing states.
func (s TaskState) IsTerminal() bool {
	return s == TaskSucceed || s == TaskFailed
}

// Event is an ordered, append-only lifecycle annotation on a Task. Terminal
// events reuse TaskState values as their Code; other codes denote progress
// annotations specific to the application.
type Event struct {
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	CreationTime time.Time `json:"creation_time"`
}

// Task is one unit of work within a Session.
type Task struct {
	ID             TaskID     `json:"id"`
	SessionID      SessionID  `json:"session_id"`
	State          TaskState  `json:"state"`
	CreationTime   time.Time  `json:"creation_time"`
	CompletionTime *time.Time `json:"completion_time,omitempty"`
	Input          []byte     `json:"input,omitempty"`
	InputRef       *ObjectRef `json:"input_ref,omitempty"`
	Output         []byte     `json:"output,omitempty"`
	OutputRef      *ObjectRef `json:"output_ref,omitempty"`
	Events         []Event    `json:"events,omitempty"`
}

// FailureEvent returns the first terminal event whose code is "failed",
// which per §3 must be present whenever State is TaskFailed.
func (t *Task) FailureEvent() (Event, bool) {
	for _, e := range t.Events {
		if e.Code == string(TaskFailed) {
			return e, true
		}
	}
	return Event{}, false
}
