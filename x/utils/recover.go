package utils

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Recovery turns a panic anywhere below it in the stack into an ErrPanic
// result, so a faulty transaction cannot halt the node.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (res weave.CheckResult, err error) {
	defer logPanic(ctx, &err)
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (res weave.DeliverResult, err error) {
	defer logPanic(ctx, &err)
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}

// logPanic reports a recovered panic. It must be deferred before
// errors.Recover so that it runs after it.
func logPanic(ctx weave.Context, err *error) {
	if errors.ErrPanic.Is(*err) {
		weave.GetLogger(ctx).Error("transaction panic", "err", *err)
	}
}
