// Package telemetry defines the logging, metrics, and tracing seams used
// throughout Flame. The client Connection and the instance Harness take a
// Logger through an option rather than reaching for a global, so callers can
// swap in their own backend or the provided clue/OTEL-backed implementation;
// no component takes a Metrics or Tracer.
package telemetry

import (
	"context"
	"time"
)

type (
	// Logger emits structured log lines. Implementations must be safe for
	// concurrent use.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers, and gauges.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, d time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer starts spans around units of work.
	Tracer interface {
		Start(ctx context.Context, name string) (context.Context, Span)
	}

	// Span represents one traced operation.
	Span interface {
		AddEvent(name string, keyvals ...any)
		RecordError(err error)
		End()
	}
)
