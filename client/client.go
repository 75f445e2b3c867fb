package client

import (
	"context"
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	tmquery "github.com/tendermint/tendermint/libs/pubsub/query"
	nm "github.com/tendermint/tendermint/node"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

const txPerPage = 50

// Client is a tendermint client wrapped to provide
// simple access to the basic data structures used in weave.
//
// Application specific clients are built on top of these accessors.
type Client struct {
	conn rpcclient.Client
}

// NewClient wraps a Client around an existing tendermint client connection.
func NewClient(conn rpcclient.Client) *Client {
	return &Client{conn: conn}
}

// NewLocalClient is simply a shorthand for a client
// with local connection
func NewLocalClient(node *nm.Node) *Client {
	return NewClient(NewLocalConnection(node))
}

// Status returns current height and other (subjective) status info from this node
func (c *Client) Status(ctx context.Context) (*Status, error) {
	status, err := c.conn.Status()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "status: %s", err)
	}
	return &Status{
		Height:     status.SyncInfo.LatestBlockHeight,
		CatchingUp: status.SyncInfo.CatchingUp,
	}, nil
}

// Genesis returns the genesis document the node was started with.
func (c *Client) Genesis(ctx context.Context) (*GenesisDoc, error) {
	gen, err := c.conn.Genesis()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "genesis: %s", err)
	}
	return gen.Genesis, nil
}

// ChainID returns the chain ID declared in the genesis document. Signatures
// are only valid for this chain.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	gen, err := c.Genesis(ctx)
	if err != nil {
		return "", err
	}
	return gen.ChainID, nil
}

// Header returns the block header at the given height.
// Returns an error if no header exists yet for that height
func (c *Client) Header(ctx context.Context, height int64) (*Header, error) {
	info, err := c.conn.BlockchainInfo(height, height)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "blockchain info: %s", err)
	}
	if len(info.BlockMetas) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no headers for height %d", height)
	}
	return &info.BlockMetas[0].Header, nil
}

// SubmitTx will submit the tx to the mempool and then return with success or error
// You will need to use WatchTx (easily parallelizable) to get the result.
// CommitTx and CommitTxs provide helpers for common use cases
func (c *Client) SubmitTx(ctx context.Context, tx weave.Tx) (TransactionID, error) {
	bz, err := proto.Marshal(tx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "marshaling: %s", err)
	}
	res, err := c.conn.BroadcastTxSync(bz)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "submit tx: %s", err)
	}
	// CheckTx failed so the transaction never reached the mempool.
	if res.Code != 0 {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return res.Hash, nil
}

// Query mirrors the abci query interface exactly. A network failure is
// reported as an ErrNetwork response code.
func (c *Client) Query(query RequestQuery) ResponseQuery {
	opts := rpcclient.ABCIQueryOptions{Height: query.Height, Prove: query.Prove}
	res, err := c.conn.ABCIQueryWithOptions(query.Path, query.Data, opts)
	if err != nil {
		code, log := errors.ABCIInfo(errors.Wrap(errors.ErrNetwork, err.Error()), false)
		return ResponseQuery{Code: code, Log: log}
	}
	return res.Response
}

// AbciQuery runs a query, turns a failure code back into an error, and
// joins the returned key and value result sets into models.
func (c *Client) AbciQuery(path string, data []byte) (AbciResponse, error) {
	return AbciQuery(c, path, data)
}

// Querier is implemented by both the remote Client and an in-process
// application.
type Querier interface {
	Query(RequestQuery) ResponseQuery
}

// AbciQuery executes a query using given querier and decodes the result
// sets.
func AbciQuery(q Querier, path string, data []byte) (AbciResponse, error) {
	var out AbciResponse
	resp := q.Query(RequestQuery{Path: path, Data: data})
	if resp.IsErr() {
		return out, errors.ABCIError(resp.Code, resp.Log)
	}
	out.Height = resp.Height
	if len(resp.Key) == 0 {
		return out, nil
	}

	keys, err := app.UnmarshalResultSet(resp.Key)
	if err != nil {
		return out, errors.Wrap(err, "keys")
	}
	vals, err := app.UnmarshalResultSet(resp.Value)
	if err != nil {
		return out, errors.Wrap(err, "values")
	}
	out.Models, err = app.JoinResults(keys, vals)
	return out, err
}

// GetTxByID will return 0 or 1 results (nil or result value)
func (c *Client) GetTxByID(ctx context.Context, id TransactionID) (*CommitResult, error) {
	tx, err := c.conn.Tx(id, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "get tx: %s", err)
	}
	return resultTxToCommitResult(tx), nil
}

// SearchTx will search for all committed transactions that match a query,
// returning them as one large array.
// It returns an error if the search request failed.
func (c *Client) SearchTx(ctx context.Context, query TxQuery) ([]*CommitResult, error) {
	// TODO: iterate over all pages once more than txPerPage results are expected
	search, err := c.conn.TxSearch(query, false, 1, txPerPage)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "search tx: %s", err)
	}
	results := make([]*CommitResult, len(search.Txs))
	for i, tx := range search.Txs {
		results[i] = resultTxToCommitResult(tx)
	}
	return results, nil
}

// SubscribeHeaders will fills the channel with all new headers
// Stops when the context is cancelled
func (c *Client) SubscribeHeaders(ctx context.Context, results chan<- Header, options ...Option) error {
	data, err := c.subscribe(ctx, QueryForHeader(), options...)
	if err != nil {
		return err
	}

	go func(in <-chan ctypes.ResultEvent) {
		defer close(results)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				if val, ok := msg.Data.(tmtypes.EventDataNewBlockHeader); ok {
					results <- val.Header
				}
			}
		}
	}(data)
	return nil
}

// SubscribeTx will subscribe to all transactions that match a query, writing them to the
// results channel as they arrive. It returns an error if the subscription request failed.
// Once subscriptions start, the continue until the context is closed (or network error)
func (c *Client) SubscribeTx(ctx context.Context, query TxQuery, results chan<- CommitResult, options ...Option) error {
	q := fmt.Sprintf("%s='%s' AND %s", tmtypes.EventTypeKey, tmtypes.EventTx, query)
	data, err := c.subscribe(ctx, q, options...)
	if err != nil {
		return err
	}

	go func(in <-chan ctypes.ResultEvent) {
		defer close(results)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				if val, ok := msg.Data.(tmtypes.EventDataTx); ok {
					results <- txResultToCommitResult(val.TxResult)
				}
			}
		}
	}(data)
	return nil
}

// subscribe wraps conn.Subscribe and uses ctx.Done() to trigger unsubscription
func (c *Client) subscribe(ctx context.Context, query string, options ...Option) (<-chan ctypes.ResultEvent, error) {
	var outCapacity []int
	for _, option := range options {
		if o, ok := option.(OptionCapacity); ok {
			outCapacity = []int{o.Capacity}
		}
	}
	q, err := tmquery.New(query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "query %q: %s", query, err)
	}

	subscriber := cmn.RandStr(16)
	out, err := c.conn.Subscribe(ctx, subscriber, q.String(), outCapacity...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "subscribe to %q: %s", query, err)
	}
	go func(stop <-chan struct{}, sub, q string) {
		<-stop
		_ = c.conn.Unsubscribe(context.Background(), sub, q)
	}(ctx.Done(), subscriber, q.String())

	return out, nil
}

func resultTxToCommitResult(tx *ctypes.ResultTx) *CommitResult {
	res, err := weave.ParseDeliverOrError(tx.TxResult)
	return &CommitResult{
		ID:     tx.Hash,
		Height: tx.Height,
		Result: res,
		Err:    err,
	}
}

func txResultToCommitResult(tx tmtypes.TxResult) CommitResult {
	res, err := weave.ParseDeliverOrError(tx.Result)
	return CommitResult{
		ID:     tx.Tx.Hash(),
		Height: tx.Height,
		Result: res,
		Err:    err,
	}
}
