// Command flame-run packages the current working directory as an ephemeral
// application, registers it, calls one method on a shared execution object,
// and tears everything down (§4.7 Runner deployer).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flamesh/flame/client"
	"github.com/flamesh/flame/config"
	"github.com/flamesh/flame/runner"
)

type counter struct {
	Count int `json:"count"`
}

func (c *counter) Increment() int {
	c.Count++
	return c.Count
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("FLAME_CONFIG"))
	if err != nil {
		panic(err)
	}

	conn, err := client.Connect(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	r, err := runner.Open(ctx, conn, "flame-run-demo", dir, "")
	if err != nil {
		panic(err)
	}
	defer r.Close(ctx)

	proxy, err := r.Service(ctx, &counter{}, true, false)
	if err != nil {
		panic(err)
	}

	future, err := proxy.Call(ctx, "Increment")
	if err != nil {
		panic(err)
	}

	var result int
	if err := future.Get(ctx, &result); err != nil {
		panic(err)
	}
	fmt.Println("count:", result)
}
