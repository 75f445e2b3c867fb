package escrow

import (
	"fmt"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

// EscrowState is the lifecycle stage of an escrow.
type EscrowState int32

const (
	// Zero value is not a valid state, so that a missing field is
	// detected.
	EscrowStateInvalid   EscrowState = 0
	EscrowStateInitiated EscrowState = 1
	EscrowStateFunded    EscrowState = 2
	EscrowStateSettled   EscrowState = 3
	EscrowStateCancelled EscrowState = 4
)

var escrowStateNames = map[EscrowState]string{
	EscrowStateInitiated: "Initiated",
	EscrowStateFunded:    "Funded",
	EscrowStateSettled:   "Settled",
	EscrowStateCancelled: "Cancelled",
}

func (s EscrowState) String() string {
	if name, ok := escrowStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EscrowState(%d)", int32(s))
}

// Validate returns ErrState for unknown state codes.
func (s EscrowState) Validate() error {
	if _, ok := escrowStateNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "unknown escrow state %d", int32(s))
	}
	return nil
}

// IsTerminal returns true if no further transition is allowed.
func (s EscrowState) IsTerminal() bool {
	return s == EscrowStateSettled || s == EscrowStateCancelled
}

// Escrow is the persisted escrow record. It is stored under its ID.
type Escrow struct {
	Metadata  *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Recipient weave.Address   `protobuf:"bytes,2,opt,name=recipient,proto3" json:"recipient"`
	// Amount is the required funding. It never changes.
	Amount coin.Amount `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount"`
	State  EscrowState `protobuf:"varint,4,opt,name=state,proto3" json:"state"`
	// Custody is the purse holding the funds. It is set once the escrow
	// is funded and kept afterwards.
	Custody weave.Address `protobuf:"bytes,5,opt,name=custody,proto3" json:"custody,omitempty"`
}

func (m *Escrow) Reset()         { *m = Escrow{} }
func (m *Escrow) String() string { return proto.CompactTextString(m) }
func (*Escrow) ProtoMessage()    {}

var _ orm.Model = (*Escrow)(nil)

// Validate ensures the escrow is valid
func (e *Escrow) Validate() error {
	if err := e.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if e.Metadata.Schema != 1 {
		return errors.Wrapf(errors.ErrSchema, "escrow schema %d", e.Metadata.Schema)
	}
	if err := e.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := e.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !e.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "escrow amount must be positive")
	}
	if err := e.State.Validate(); err != nil {
		return err
	}
	switch e.State {
	case EscrowStateInitiated:
		if len(e.Custody) != 0 {
			return errors.Wrap(errors.ErrState, "custody before funding")
		}
	case EscrowStateFunded, EscrowStateSettled:
		if err := e.Custody.Validate(); err != nil {
			return errors.Wrap(err, "custody")
		}
	case EscrowStateCancelled:
		// Cancelled before funding has no custody.
		if len(e.Custody) != 0 {
			if err := e.Custody.Validate(); err != nil {
				return errors.Wrap(err, "custody")
			}
		}
	}
	return nil
}

const maxEscrowIDLength = 128

var isEscrowID = regexp.MustCompile(`^[a-zA-Z0-9_\-.:]+$`).MatchString

// ValidateEscrowID returns an error if given value cannot be used as an
// escrow ID.
func ValidateEscrowID(id string) error {
	switch n := len(id); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "escrow id")
	case n > maxEscrowIDLength:
		return errors.Wrapf(errors.ErrInput, "escrow id longer than %d characters", maxEscrowIDLength)
	case !isEscrowID(id):
		return errors.Wrapf(errors.ErrInput, "escrow id %q contains invalid characters", id)
	}
	return nil
}

// BucketName is the name of the escrow bucket.
const BucketName = "esc"

// NewBucket returns a bucket for escrows indexed by their recipient.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Escrow{},
		orm.WithIndex("recipient", recipientIndex, false),
	)
}

func recipientIndex(m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return e.Recipient, nil
}

// RegisterQuery will register this bucket as "/escrows"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("escrows", qr)
}
