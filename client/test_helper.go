package client

import (
	"context"
	"fmt"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"
	nm "github.com/tendermint/tendermint/node"
	rpctest "github.com/tendermint/tendermint/rpc/test"
)

// Runner is satisfied by *testing.M
type Runner interface {
	Run() int
}

// TestWithTendermint starts given application inside of a tendermint node,
// calls cb with the node so tests can set up their clients, waits for the
// first block and runs the tests. The node is stopped before returning the
// exit code.
func TestWithTendermint(app abci.Application, cb func(*nm.Node), m Runner) int {
	n := rpctest.StartTendermint(app)
	cb(n)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var code int
	if h, err := NewLocalClient(n).WaitForNextBlock(ctx); err != nil {
		fmt.Printf("Failed to start tendermint: %s\n", err)
		code = 1
	} else {
		fmt.Printf("Starting tests with block %d\n", h.Height)
		code = m.Run()
	}

	_ = n.Stop()
	n.Wait()
	return code
}
