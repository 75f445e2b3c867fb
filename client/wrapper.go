package client

import (
	"context"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// SubscribeTxByID will block until there is a result, then return it
// You must cancel the context to avoid blocking forever in some cases
func (c *Client) SubscribeTxByID(ctx context.Context, id TransactionID) (*CommitResult, error) {
	txs := make(chan CommitResult, 1)
	if err := c.SubscribeTx(ctx, QueryTxByID(id), txs); err != nil {
		return nil, err
	}

	// channel may be closed if subscription cancelled first
	res, ok := <-txs
	if !ok {
		return nil, errors.Wrap(errors.ErrTimeout, "unsubscribed before result")
	}
	return &res, nil
}

// WatchTx will block until this transaction makes it into a block
// It will return immediately if the id was included in a block prior to the query, to avoid timing issues
// You can use context.Context to pass in a timeout
func (c *Client) WatchTx(ctx context.Context, id TransactionID) (*CommitResult, error) {
	subctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := make(chan resultOrError, 1)
	go func() {
		res, err := c.SubscribeTxByID(subctx, id)
		sub <- resultOrError{result: res, err: err}
	}()

	// the transaction might be in a block already, then the subscription
	// is not needed
	if found, _ := c.GetTxByID(ctx, id); found != nil {
		return found, nil
	}

	result := <-sub
	return result.result, result.err
}

// CommitTx will block on both Check and Deliver, returning when it is in a block
func (c *Client) CommitTx(ctx context.Context, tx weave.Tx) (*CommitResult, error) {
	check, err := c.SubmitTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	res, err := c.WatchTx(ctx, check)
	if err == nil {
		c.waitForTxIndex()
	}
	return res, err
}

// BroadcastTxCommit submits the transaction and waits for it to be included
// in a block using a single node request. A CheckTx failure is returned as
// an error, a DeliverTx failure is set as the result Err.
func (c *Client) BroadcastTxCommit(ctx context.Context, tx weave.Tx) (*CommitResult, error) {
	bz, err := proto.Marshal(tx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "marshaling: %s", err)
	}
	res, err := c.conn.BroadcastTxCommit(bz)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "broadcast tx: %s", err)
	}
	if res.CheckTx.IsErr() {
		return nil, errors.ABCIError(res.CheckTx.Code, res.CheckTx.Log)
	}
	deliver, err := weave.ParseDeliverOrError(res.DeliverTx)
	return &CommitResult{
		ID:     res.Hash,
		Height: res.Height,
		Result: deliver,
		Err:    err,
	}, nil
}

// WatchTxs will watch a list of transactions in parallel
func (c *Client) WatchTxs(ctx context.Context, ids []TransactionID) ([]*CommitResult, error) {
	var (
		mu     sync.Mutex
		gotErr error
		wg     sync.WaitGroup
	)
	res := make([]*CommitResult, len(ids))
	for i, id := range ids {
		if id == nil {
			continue
		}
		wg.Add(1)
		go func(idx int, id TransactionID) {
			defer wg.Done()
			r, err := c.WatchTx(ctx, id)

			mu.Lock()
			res[idx] = r
			if err != nil {
				gotErr = err
			}
			mu.Unlock()
		}(i, id)
	}
	wg.Wait()

	if gotErr != nil {
		return nil, gotErr
	}
	return res, nil
}

// CommitTxs will submit many transactions and wait until they are all included in blocks.
// Ideally, all in the same block.
//
// If any tx fails in mempool or network, this returns an error
func (c *Client) CommitTxs(ctx context.Context, txs []weave.Tx) ([]*CommitResult, error) {
	ids := make([]TransactionID, len(txs))
	for i, tx := range txs {
		id, err := c.SubmitTx(ctx, tx)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return c.WatchTxs(ctx, ids)
}

// WaitForNextBlock will return the next block header to arrive (as subscription)
func (c *Client) WaitForNextBlock(ctx context.Context) (*Header, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headers := make(chan Header, 1)
	if err := c.SubscribeHeaders(cctx, headers); err != nil {
		return nil, err
	}
	h, ok := <-headers
	if !ok {
		return nil, errors.Wrap(errors.ErrNetwork, "subscription closed without returning any headers")
	}
	c.waitForTxIndex()
	return &h, nil
}

// headerBuffer is the subscription capacity used when waiting for several
// blocks. Tendermint drops subscribers that fall behind.
const headerBuffer = 16

// WaitForHeight subscribes to headers and returns as soon as a header arrives
// equal to or greater than the given height. If the requested height is in
// the past, it will still wait for the next block to arrive. ErrTimeout is
// returned when the context is done first.
func (c *Client) WaitForHeight(ctx context.Context, height int64) (*Header, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headers := make(chan Header, headerBuffer)
	if err := c.SubscribeHeaders(cctx, headers, OptionCapacity{Capacity: headerBuffer}); err != nil {
		return nil, err
	}
	for h := range headers {
		if h.Height >= height {
			c.waitForTxIndex()
			return &h, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrTimeout, "waiting for height %d: %s", height, err)
	}
	return nil, errors.Wrapf(errors.ErrNetwork, "subscription closed before height %d", height)
}

// waitForTxIndex waits until all tx in last block are indexed. A header
// event arrives before the indexer is done.
func (c *Client) waitForTxIndex() {
	time.Sleep(100 * time.Millisecond)
}
