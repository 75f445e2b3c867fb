package weavetest

import (
	"context"
	"fmt"

	"github.com/iov-one/weave-escrow"
)

// calls counts the Check and Deliver invocations of a mock.
type calls struct {
	check   int
	deliver int
}

func (c *calls) CheckCallCount() int   { return c.check }
func (c *calls) DeliverCallCount() int { return c.deliver }
func (c *calls) CallCount() int        { return c.check + c.deliver }

// Handler is a weave.Handler returning preset results. Calls are counted
// whatever the result.
type Handler struct {
	calls

	CheckResult weave.CheckResult
	CheckErr    error

	DeliverResult weave.DeliverResult
	DeliverErr    error
}

var _ weave.Handler = (*Handler)(nil)

func (h *Handler) Check(weave.Context, weave.KVStore, weave.Tx) (weave.CheckResult, error) {
	h.check++
	return h.CheckResult, h.CheckErr
}

func (h *Handler) Deliver(weave.Context, weave.KVStore, weave.Tx) (weave.DeliverResult, error) {
	h.deliver++
	return h.DeliverResult, h.DeliverErr
}

// Decorator is a weave.Decorator that either fails with a preset error or
// passes the call on to the next handler.
type Decorator struct {
	calls

	CheckErr   error
	DeliverErr error
}

var _ weave.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (weave.CheckResult, error) {
	d.check++
	if d.CheckErr != nil {
		return weave.CheckResult{}, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (weave.DeliverResult, error) {
	d.deliver++
	if d.DeliverErr != nil {
		return weave.DeliverResult{}, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// Decorate wraps a handler with a single decorator.
func Decorate(h weave.Handler, d weave.Decorator) weave.Handler {
	return decorated{h: h, d: d}
}

type decorated struct {
	h weave.Handler
	d weave.Decorator
}

func (w decorated) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	return w.d.Check(ctx, db, tx, w.h)
}

func (w decorated) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	return w.d.Deliver(ctx, db, tx, w.h)
}

// Auth is an x.Authenticator that always reports the same signers. Signer,
// when set, is the main signer and comes before Signers.
type Auth struct {
	Signer  weave.Condition
	Signers []weave.Condition
}

func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append([]weave.Condition{a.Signer}, a.Signers...)
}

func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is an x.Authenticator reading the signers from the context, where
// SetConditions stored them under Key.
type CtxAuth struct {
	Key string
}

func (a *CtxAuth) SetConditions(ctx weave.Context, conds ...weave.Condition) weave.Context {
	return context.WithValue(ctx, a.Key, conds)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	switch v := ctx.Value(a.Key).(type) {
	case nil:
		return nil
	case []weave.Condition:
		return v
	default:
		panic(fmt.Sprintf("want []weave.Condition under %q, got %T", a.Key, v))
	}
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []weave.Condition, addr weave.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
