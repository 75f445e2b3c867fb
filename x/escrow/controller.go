package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

// CustodyService is the fund movement functionality required by the escrow
// controller. cash.Controller implements it.
type CustodyService interface {
	Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Amount, error)
	// MoveCoins must move all of the amount or nothing.
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Amount) error
	// OpenPurse returns the address of a new, empty holding.
	OpenPurse(db weave.KVStore) (weave.Address, error)
}

// Controller implements the escrow lifecycle on top of a store and a
// custody service.
type Controller struct {
	bucket  orm.ModelBucket
	custody CustodyService
}

// NewController returns a controller that keeps escrows in the default
// bucket.
func NewController(custody CustodyService) Controller {
	return Controller{
		bucket:  NewBucket(),
		custody: custody,
	}
}

// Escrow returns the escrow stored under given ID. Records that fail
// validation, for example because of an unknown state code, are rejected.
func (c Controller) Escrow(db weave.ReadOnlyKVStore, id string) (*Escrow, error) {
	var e Escrow
	if err := c.bucket.One(db, []byte(id), &e); err != nil {
		return nil, errors.Wrapf(err, "escrow %q", id)
	}
	if err := e.Validate(); err != nil {
		return nil, errors.Wrapf(err, "stored escrow %q", id)
	}
	return &e, nil
}

// Create stores a new escrow awaiting funding. An ID can be used only once.
func (c Controller) Create(db weave.KVStore, id string, recipient weave.Address, amount coin.Amount) (*Escrow, error) {
	if err := ValidateEscrowID(id); err != nil {
		return nil, err
	}
	switch exists, err := c.bucket.Has(db, []byte(id)); {
	case err != nil:
		return nil, err
	case exists:
		return nil, errors.Wrapf(errors.ErrDuplicate, "escrow %q", id)
	}

	e := &Escrow{
		Metadata:  &weave.Metadata{Schema: 1},
		Recipient: recipient,
		Amount:    amount,
		State:     EscrowStateInitiated,
	}
	if err := c.bucket.Put(db, []byte(id), e); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	return e, nil
}

// Fund moves the paid amount from the payer into a new purse and marks the
// escrow as funded. Paying more than required is allowed. A purse is opened
// only once the payer is known to hold the paid amount.
func (c Controller) Fund(db weave.KVStore, id string, payer weave.Address, paid coin.Amount) (*Escrow, error) {
	e, err := c.Escrow(db, id)
	if err != nil {
		return nil, err
	}
	prev := e.State
	next, err := nextState(prev, opFund)
	if err != nil {
		return nil, err
	}
	if paid.Compare(e.Amount) < 0 {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "paid %s, required %s", paid, e.Amount)
	}

	have, err := c.custody.Balance(db, payer)
	if err != nil {
		return nil, errors.Wrap(ErrTransferFailed, err.Error())
	}
	if have.Compare(paid) < 0 {
		return nil, errors.Wrapf(ErrTransferFailed, "payer holds %s, paying %s", have, paid)
	}

	purse, err := c.custody.OpenPurse(db)
	if err != nil {
		return nil, errors.Wrap(ErrTransferFailed, err.Error())
	}
	if err := c.custody.MoveCoins(db, payer, purse, paid); err != nil {
		return nil, errors.Wrap(ErrTransferFailed, err.Error())
	}

	e.Custody = purse
	e.State = next
	if err := c.save(db, id, e, prev); err != nil {
		return nil, err
	}
	return e, nil
}

// Settle pays everything held in custody to the recipient. Only the relayer
// can settle.
func (c Controller) Settle(db weave.KVStore, conf *Configuration, caller weave.Address, id string) (*Escrow, error) {
	if err := authorizeRelayer(caller, conf); err != nil {
		return nil, err
	}
	e, err := c.Escrow(db, id)
	if err != nil {
		return nil, err
	}
	prev := e.State
	next, err := nextState(prev, opSettle)
	if err != nil {
		return nil, err
	}
	if err := c.release(db, e.Custody, e.Recipient); err != nil {
		return nil, err
	}
	e.State = next
	if err := c.save(db, id, e, prev); err != nil {
		return nil, err
	}
	return e, nil
}

// Cancel terminates a pending escrow. Funds held in custody are returned to
// the caller, which must be the relayer.
func (c Controller) Cancel(db weave.KVStore, conf *Configuration, caller weave.Address, id string) (*Escrow, error) {
	if err := authorizeRelayer(caller, conf); err != nil {
		return nil, err
	}
	e, err := c.Escrow(db, id)
	if err != nil {
		return nil, err
	}
	prev := e.State
	next, err := nextState(prev, opCancel)
	if err != nil {
		return nil, err
	}
	if prev == EscrowStateFunded {
		if err := c.release(db, e.Custody, caller); err != nil {
			return nil, err
		}
	}
	e.State = next
	if err := c.save(db, id, e, prev); err != nil {
		return nil, err
	}
	return e, nil
}

// release moves the whole custody balance to given destination.
func (c Controller) release(db weave.KVStore, custody, dest weave.Address) error {
	held, err := c.custody.Balance(db, custody)
	if err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}
	if held.IsZero() {
		return nil
	}
	if err := c.custody.MoveCoins(db, custody, dest, held); err != nil {
		return errors.Wrap(ErrTransferFailed, err.Error())
	}
	return nil
}

// save stores the escrow only if its stored state is still the expected one.
func (c Controller) save(db weave.KVStore, id string, e *Escrow, expected EscrowState) error {
	current, err := c.Escrow(db, id)
	if err != nil {
		return err
	}
	if current.State != expected {
		return errors.Wrapf(errors.ErrState, "escrow %q changed from %s to %s", id, expected, current.State)
	}
	if err := c.bucket.Put(db, []byte(id), e); err != nil {
		return errors.Wrap(err, "cannot store escrow")
	}
	return nil
}
