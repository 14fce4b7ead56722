package instance_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/instance"
	"github.com/flamesh/flame/objectcache"
	"github.com/flamesh/flame/rpc"
)

type echoService struct {
	entered, left bool
}

func (s *echoService) OnSessionEnter(ctx context.Context, sc *instance.SessionContext) error {
	s.entered = true
	return nil
}

func (s *echoService) OnTaskInvoke(ctx context.Context, sc *instance.SessionContext, tc *instance.TaskContext) ([]byte, error) {
	out := append([]byte("echo:"), tc.Input...)
	return out, nil
}

func (s *echoService) OnSessionLeave(ctx context.Context, sc *instance.SessionContext) error {
	s.left = true
	return nil
}

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

func TestHarnessLifecycle(t *testing.T) {
	svc := &echoService{}
	h := instance.New(svc, objectcache.New(""))

	lis := bufconn.Listen(1024 * 1024)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = h.Serve(ctx, lis) }()
	time.Sleep(10 * time.Millisecond)

	conn := dialBufconn(t, lis)
	defer conn.Close()

	var enterResp rpc.OnSessionEnterResponse
	err := rpc.Invoke(context.Background(), conn, rpc.MethodOnSessionEnter, &rpc.OnSessionEnterRequest{
		SessionID:     "sess-1",
		CommonDataRef: (&flame.ObjectRef{}).Encode(),
	}, &enterResp)
	require.NoError(t, err)
	require.Equal(t, 0, enterResp.ReturnCode)
	require.True(t, svc.entered)

	var invokeResp rpc.OnTaskInvokeResponse
	err = rpc.Invoke(context.Background(), conn, rpc.MethodOnTaskInvoke, &rpc.OnTaskInvokeRequest{
		SessionID: "sess-1",
		TaskID:    "task-1",
		Input:     []byte("hi"),
	}, &invokeResp)
	require.NoError(t, err)
	require.Equal(t, 0, invokeResp.ReturnCode)
	require.Equal(t, "echo:hi", string(invokeResp.Output))

	var leaveResp rpc.OnSessionLeaveResponse
	err = rpc.Invoke(context.Background(), conn, rpc.MethodOnSessionLeave, &rpc.OnSessionLeaveRequest{
		SessionID: "sess-1",
	}, &leaveResp)
	require.NoError(t, err)
	require.Equal(t, 0, leaveResp.ReturnCode)
	require.True(t, svc.left)
}
