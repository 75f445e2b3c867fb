package client

import (
	nm "github.com/tendermint/tendermint/node"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
)

// NewLocalConnection wraps an in-process node with a client, useful for tests
func NewLocalConnection(node *nm.Node) rpcclient.Client {
	return rpcclient.NewLocal(node)
}

// NewHTTPConnection takes a URL and sends all requests to the remote node.
// Subscriptions go through the websocket endpoint of the same node.
func NewHTTPConnection(remote string) rpcclient.Client {
	return rpcclient.NewHTTP(remote, "/websocket")
}
