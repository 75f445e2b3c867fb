package app

import (
	"reflect"

	"github.com/iov-one/weave-escrow"
)

// Decorators is an ordered stack of decorators still waiting for the final
// handler. The first decorator is the outermost one.
type Decorators struct {
	chain []weave.Decorator
}

// ChainDecorators builds a stack from the given decorators, skipping nil
// entries so optional decorators can be passed in place:
//
//   app.ChainDecorators(
//     utils.NewLogging(),
//     utils.NewRecovery(),
//     sigs.NewDecorator(),
//   ).WithHandler(router)
func ChainDecorators(ds ...weave.Decorator) Decorators {
	chain := make([]weave.Decorator, 0, len(ds))
	for _, d := range ds {
		if !isNilDecorator(d) {
			chain = append(chain, d)
		}
	}
	return Decorators{chain: chain}
}

func isNilDecorator(d weave.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler returns a handler that runs every decorator of the stack, in
// order, before calling h.
func (d Decorators) WithHandler(h weave.Handler) weave.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step binds a decorator to the handler it wraps.
type step struct {
	d    weave.Decorator
	next weave.Handler
}

var _ weave.Handler = step{}

func (s step) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	return s.d.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	return s.d.Deliver(ctx, db, tx, s.next)
}
