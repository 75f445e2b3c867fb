package x

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Authenticator tells which conditions signed the transaction being
// processed. Handlers receive one in their constructor so that the
// signature scheme is not hard-coded into the extensions.
type Authenticator interface {
	// GetConditions returns the fulfilled conditions, main signer first.
	GetConditions(weave.Context) []weave.Condition
	// HasAddress reports whether any fulfilled condition has this address.
	HasAddress(weave.Context, weave.Address) bool
}

// MultiAuth merges the results of several authenticators.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth returns an authenticator that consults all given
// implementations in order.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls: impls}
}

func (m MultiAuth) GetConditions(ctx weave.Context) []weave.Condition {
	var conds []weave.Condition
	for _, a := range m.impls {
		conds = append(conds, a.GetConditions(ctx)...)
	}
	return conds
}

func (m MultiAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, a := range m.impls {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first fulfilled condition or nil.
func MainSigner(ctx weave.Context, auth Authenticator) weave.Condition {
	if conds := auth.GetConditions(ctx); len(conds) > 0 {
		return conds[0]
	}
	return nil
}

// Caller returns the address of the main signer of the transaction. An
// unauthenticated transaction has no caller.
func Caller(ctx weave.Context, auth Authenticator) (weave.Address, error) {
	signer := MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return signer.Address(), nil
}

// RequireAddress returns ErrUnauthorized unless given address signed the
// transaction. The address does not have to belong to the main signer.
func RequireAddress(ctx weave.Context, auth Authenticator, addr weave.Address) error {
	if len(addr) == 0 || !auth.HasAddress(ctx, addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s did not sign", addr)
	}
	return nil
}
