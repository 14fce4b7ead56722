// Command flame-worker is a minimal instance harness host: it wraps a
// sum(a,b) entrypoint and serves it over the worker socket advertised by
// FLAME_INSTANCE_SOCK, falling back to the local HTTP debug listener when
// that environment variable is unset (§4.4).
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/config"
	"github.com/flamesh/flame/entrypoint"
	"github.com/flamesh/flame/instance"
	"github.com/flamesh/flame/objectcache"
	"github.com/flamesh/flame/telemetry"
)

type sumArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

type sumResult struct {
	Sum int `json:"sum"`
}

func sum(ctx context.Context, in sumArgs) (sumResult, error) {
	return sumResult{Sum: in.A + in.B}, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("FLAME_CONFIG"))
	if err != nil {
		panic(err)
	}

	svc := entrypoint.New(sum)
	cache := objectcache.New(cfg.CacheAddr)
	logger := telemetry.NewClueLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sockPath := instance.SockEnv(config.DefaultWorkerSockEnv)
	if sockPath == "" {
		runDebug(ctx, svc, cfg)
		return
	}

	lis, err := net.Listen("unix", sockPath)
	if err != nil {
		panic(fmt.Errorf("listen on %s: %w", sockPath, err))
	}
	defer lis.Close()

	h := instance.New(svc, cache, instance.WithLogger(logger))
	logger.Info(ctx, "flame-worker listening", "socket", sockPath)
	if err := h.Serve(ctx, lis); err != nil {
		panic(err)
	}
}

func runDebug(ctx context.Context, svc instance.Service, cfg *config.Config) {
	app := flame.Application{Name: "sum-demo", Shim: flame.ShimGRPC}
	d, err := instance.NewDebugServer(svc, app, []string{"sum"})
	if err != nil {
		panic(err)
	}
	defer d.Close(ctx)

	addr := fmt.Sprintf(":%d", cfg.DebugPort)
	srv := &http.Server{Addr: addr, Handler: d.Handler()}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	fmt.Printf("flame-worker debug mode listening on %s (POST /sum)\n", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
