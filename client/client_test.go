package client_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/client"
	"github.com/flamesh/flame/config"
	"github.com/flamesh/flame/internal/testfrontend"
)

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	return conn
}

// newTestConnection wires a client.Connection directly around a bufconn
// gRPC channel, bypassing Connect's real dialer (which needs a TCP address).
func newTestConnection(t *testing.T, store *testfrontend.Store) *client.Connection {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer()
	testfrontend.NewServer(store).Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn := dialBufconn(t, lis)
	t.Cleanup(func() { _ = conn.Close() })

	return client.NewConnectionForTesting(conn, config.Default())
}

func TestSessionInvokeSucceeds(t *testing.T) {
	store := testfrontend.NewStore()
	conn := newTestConnection(t, store)
	ctx := t.Context()

	sess, err := client.CreateSession(ctx, conn, "demo-app", 4, nil)
	require.NoError(t, err)

	var snapshots []flame.Task
	informer := client.InformerFunc(func(task flame.Task) {
		snapshots = append(snapshots, task)
	})

	done := make(chan struct{})
	var out []byte
	var invokeErr error
	go func() {
		defer close(done)
		out, invokeErr = sess.Invoke(ctx, []byte("hello"), informer)
	}()

	// Invoke creates its own task internally; drive the earliest
	// created one (the session has exactly one pending task at a
	// time in this test) to completion as a worker harness would.
	driven := store.FirstPendingTask(sess.ID())
	store.Transition(sess.ID(), driven.ID, flame.TaskRunning, flame.Event{Code: "running"}, nil)
	store.Transition(sess.ID(), driven.ID, flame.TaskSucceed, flame.Event{Code: "succeed"}, []byte("HELLO"))

	<-done
	require.NoError(t, invokeErr)
	require.Equal(t, "HELLO", string(out))
	require.GreaterOrEqual(t, len(snapshots), 2)
}

func TestSessionInvokeFails(t *testing.T) {
	store := testfrontend.NewStore()
	conn := newTestConnection(t, store)
	ctx := t.Context()

	sess, err := client.CreateSession(ctx, conn, "demo-app", 4, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	var invokeErr error
	go func() {
		defer close(done)
		_, invokeErr = sess.Invoke(ctx, []byte("boom"), nil)
	}()

	driven := store.FirstPendingTask(sess.ID())
	store.Transition(sess.ID(), driven.ID, flame.TaskRunning, flame.Event{Code: "running"}, nil)
	store.Transition(sess.ID(), driven.ID, flame.TaskFailed, flame.Event{Code: "failed", Message: "divide by zero"}, nil)

	<-done
	require.Error(t, invokeErr)
	fe, ok := flame.AsError(invokeErr)
	require.True(t, ok)
	require.Equal(t, flame.CodeInternal, fe.Code)
	require.Contains(t, fe.Message, "divide by zero")
}

func TestSessionRunReturnsFuture(t *testing.T) {
	store := testfrontend.NewStore()
	conn := newTestConnection(t, store)
	ctx := t.Context()

	sess, err := client.CreateSession(ctx, conn, "demo-app", 4, nil)
	require.NoError(t, err)

	future := sess.Run([]byte("hi"), nil)

	driven := store.FirstPendingTask(sess.ID())
	store.Transition(sess.ID(), driven.ID, flame.TaskSucceed, flame.Event{Code: "succeed"}, []byte("HI"))

	out, err := future.Result(ctx)
	require.NoError(t, err)
	require.Equal(t, "HI", string(out))

	// Result is idempotent: a second call replays the captured outcome.
	out2, err2 := future.Result(ctx)
	require.NoError(t, err2)
	require.Equal(t, out, out2)
}
