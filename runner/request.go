// Package runner implements the generic runner (§4.6) and the Runner
// deployer (§4.7): a prebuilt instance.Service that dispatches arbitrary
// methods on a shared execution object shipped via common_data, and the
// client-side context manager that packages a working directory, uploads
// it, registers a one-off application, and proxies method calls onto it.
package runner

// RunnerContext is the common_data shape a generic-runner application
// carries: the execution object plus its instance policy (§3 RunnerContext).
type RunnerContext struct {
	// ExecutionObject is serialized opaque bytes decoded into the concrete
	// execution object type the worker process registers under Name.
	ExecutionObject []byte `json:"execution_object"`
	Stateful        bool   `json:"stateful"`
	Autoscale       bool   `json:"autoscale"`
}

// RunnerRequest is the decoded form of one generic-runner task input
// (§3 RunnerRequest). Method == "" means the execution object itself is
// invoked (it must be callable).
type RunnerRequest struct {
	Method string         `json:"method,omitempty"`
	Args   []any          `json:"args,omitempty"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

