package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single address. Wallets with no funds are
// not stored.
type Wallet struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Balance  coin.Amount     `protobuf:"bytes,2,opt,name=balance,proto3,casttype=github.com/iov-one/weave-escrow/coin.Amount" json:"balance"`
}

func (m *Wallet) Reset()         { *m = Wallet{} }
func (m *Wallet) String() string { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()    {}

var _ orm.Model = (*Wallet)(nil)

// Validate requires a positive balance.
func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := w.Balance.Validate(); err != nil {
		return errors.Wrap(err, "balance")
	}
	if !w.Balance.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "empty wallet")
	}
	return nil
}

// Bucket is a type-safe wrapper around orm.ModelBucket
type Bucket struct {
	orm.ModelBucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Wallet{}),
	}
}

// Balance returns the funds held by given address. Unknown addresses hold
// nothing.
func (b Bucket) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Amount, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return w.Balance, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// SetBalance stores the balance of given address. A zero balance removes the
// wallet.
func (b Bucket) SetBalance(db weave.KVStore, addr weave.Address, balance coin.Amount) error {
	if !balance.IsZero() {
		return b.Put(db, addr, &Wallet{
			Metadata: &weave.Metadata{Schema: 1},
			Balance:  balance,
		})
	}
	switch err := b.Delete(db, addr); {
	case err == nil, errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}

// RegisterQuery will register this bucket as "/wallets"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("wallets", qr)
}
