package rpc

// Messages for the instance harness's local RPC surface (§4.4). The
// frontend (out of scope per spec.md §1) dials this service; this repo only
// implements the server side plus, for tests, a minimal client.

type (
	// OnSessionEnterRequest delivers the session context the instance must
	// install before any task runs.
	OnSessionEnterRequest struct {
		SessionID              string `json:"session_id"`
		ApplicationDescriptor   []byte `json:"application_descriptor"`
		CommonDataRef           []byte `json:"common_data_ref"`
	}
	// OnSessionEnterResponse carries the user service's outcome.
	OnSessionEnterResponse struct {
		ReturnCode int    `json:"return_code"`
		Message    string `json:"message,omitempty"`
	}

	// OnTaskInvokeRequest delivers one task's input.
	OnTaskInvokeRequest struct {
		SessionID string `json:"session_id"`
		TaskID    string `json:"task_id"`
		Input     []byte `json:"input"`
	}
	// OnTaskInvokeResponse carries the task's output or failure.
	OnTaskInvokeResponse struct {
		ReturnCode int    `json:"return_code"`
		Output     []byte `json:"output,omitempty"`
		Message    string `json:"message,omitempty"`
	}

	// OnSessionLeaveRequest signals the session is done on this instance.
	OnSessionLeaveRequest struct {
		SessionID string `json:"session_id"`
	}
	// OnSessionLeaveResponse carries the user service's outcome.
	OnSessionLeaveResponse struct {
		ReturnCode int    `json:"return_code"`
		Message    string `json:"message,omitempty"`
	}
)

// Harness service method names (§4.4).
const (
	HarnessServiceName    = "flame.instance.Harness"
	MethodOnSessionEnter  = "/flame.instance.Harness/OnSessionEnter"
	MethodOnTaskInvoke    = "/flame.instance.Harness/OnTaskInvoke"
	MethodOnSessionLeave  = "/flame.instance.Harness/OnSessionLeave"
)
