package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp is a StoreApp that also executes transactions. Each transaction
// is decoded and passed to a single handler, usually a decorated router.
type BaseApp struct {
	*StoreApp
	decoder weave.TxDecoder
	handler weave.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp returns an application running transactions through handler.
// With debug set, error responses include stack traces.
func NewBaseApp(store *StoreApp, decoder weave.TxDecoder, handler weave.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store.WithDebug(debug),
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx executes the transaction against the block state.
func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	tx, err := b.decode(raw)
	if err != nil {
		return weave.DeliverTxError(err, b.debug)
	}
	ctx := weave.WithLogInfo(b.BlockContext(), "call", "deliver_tx", "path", weave.GetPath(tx))
	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	return weave.DeliverOrError(res, err, b.debug)
}

// CheckTx validates the transaction against the mempool state.
func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	tx, err := b.decode(raw)
	if err != nil {
		return weave.CheckTxError(err, b.debug)
	}
	ctx := weave.WithLogInfo(b.BlockContext(), "call", "check_tx", "path", weave.GetPath(tx))
	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return weave.CheckOrError(res, err, b.debug)
}

// decode runs the decoder, turning a panic into ErrPanic.
func (b BaseApp) decode(raw []byte) (tx weave.Tx, err error) {
	defer errors.Recover(&err)
	return b.decoder(raw)
}
