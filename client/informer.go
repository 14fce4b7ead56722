package client

import "github.com/flamesh/flame"

// Informer receives per-task lifecycle snapshots during Invoke/Run. Flame
// serializes callbacks across concurrent invocations of the same Session
// under the session's mutex, so a single Informer never sees two snapshots
// interleaved (§4.3, §5).
type Informer interface {
	OnTaskUpdate(task flame.Task)
}

// InformerFunc adapts a plain function to the Informer interface.
type InformerFunc func(flame.Task)

// OnTaskUpdate implements Informer.
func (f InformerFunc) OnTaskUpdate(task flame.Task) { f(task) }
