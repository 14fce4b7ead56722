package instance

import "context"

// Service is what user code implements to back an Application (§3, §4.4).
// The harness calls these three methods in strict order for a given
// session: OnSessionEnter happens-before every OnTaskInvoke, and
// OnSessionLeave happens-after every OnTaskInvoke has returned.
type Service interface {
	// OnSessionEnter is called once when the instance starts serving sc's
	// session. A non-nil error fails the session on this instance.
	OnSessionEnter(ctx context.Context, sc *SessionContext) error

	// OnTaskInvoke runs one task and returns its output bytes. A non-nil
	// error becomes a failed task event carrying the error's message.
	OnTaskInvoke(ctx context.Context, sc *SessionContext, tc *TaskContext) ([]byte, error)

	// OnSessionLeave is called once after every task returned by
	// OnTaskInvoke has completed.
	OnSessionLeave(ctx context.Context, sc *SessionContext) error
}
