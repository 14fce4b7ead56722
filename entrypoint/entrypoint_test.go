package entrypoint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flamesh/flame/entrypoint"
	"github.com/flamesh/flame/instance"
)

type sumArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

type sumResult struct {
	Sum int `json:"sum"`
}

func TestEntrypointInvoke(t *testing.T) {
	svc := entrypoint.New(func(ctx context.Context, in sumArgs) (sumResult, error) {
		return sumResult{Sum: in.A + in.B}, nil
	})

	require.NoError(t, svc.OnSessionEnter(context.Background(), nil))

	tc := &instance.TaskContext{Input: []byte(`{"a":2,"b":3}`)}
	out, err := svc.OnTaskInvoke(context.Background(), nil, tc)
	require.NoError(t, err)
	require.JSONEq(t, `{"sum":5}`, string(out))

	require.NoError(t, svc.OnSessionLeave(context.Background(), nil))
}

func TestEntrypointGoroutineExecutor(t *testing.T) {
	svc := entrypoint.New(func(ctx context.Context, in sumArgs) (sumResult, error) {
		return sumResult{Sum: in.A * in.B}, nil
	}, entrypoint.WithExecutor(entrypoint.Goroutine()))

	tc := &instance.TaskContext{Input: []byte(`{"a":4,"b":5}`)}
	out, err := svc.OnTaskInvoke(context.Background(), nil, tc)
	require.NoError(t, err)
	require.JSONEq(t, `{"sum":20}`, string(out))
}
