package cash

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

// Controller is the functionality needed by cash.Handler and other
// extensions that move funds.
type Controller interface {
	// Balance returns the funds held by given address.
	Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Amount, error)
	// MoveCoins moves the given amount from src to dest. Either both
	// wallets are updated or none is.
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Amount) error
	// IssueCoins adds the given amount to the destination wallet.
	IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Amount) error
	// OpenPurse returns the address of a new, empty holding that no key
	// controls.
	OpenPurse(db weave.KVStore) (weave.Address, error)
}

// BaseController is a simple implementation of Controller
type BaseController struct {
	bucket Bucket
	purses orm.Sequence
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController(bucket Bucket) BaseController {
	return BaseController{
		bucket: bucket,
		purses: orm.NewSequence(BucketName, "purse"),
	}
}

// Balance returns the funds held by given address.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Amount, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	return c.bucket.Balance(db, addr)
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Amount) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "non-positive amount")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}

	have, err := c.bucket.Balance(db, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if have.IsZero() {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	left, err := have.Sub(amount)
	if err != nil {
		return errors.Wrapf(err, "%s holds %s", src, have)
	}
	if src.Equals(dest) {
		return nil
	}

	got, err := c.bucket.Balance(db, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	total, err := got.Add(amount)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}

	// Both balances are computed before anything is written.
	if err := c.bucket.SetBalance(db, src, left); err != nil {
		return errors.Wrap(err, "save sender")
	}
	if err := c.bucket.SetBalance(db, dest, total); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Amount) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "non-positive amount")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	got, err := c.bucket.Balance(db, dest)
	if err != nil {
		return err
	}
	total, err := got.Add(amount)
	if err != nil {
		return err
	}
	return c.bucket.SetBalance(db, dest, total)
}

// OpenPurse returns the address of a new holding. Each call returns a
// different address.
func (c BaseController) OpenPurse(db weave.KVStore) (weave.Address, error) {
	seq, err := c.purses.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "purse sequence")
	}
	return PurseCondition(seq).Address(), nil
}

// PurseCondition returns the condition of the purse opened with given
// sequence value.
func PurseCondition(seq []byte) weave.Condition {
	return weave.NewCondition("cash", "purse", seq)
}
