package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

const (
	pathCreateMsg = "escrow/create"
	pathFundMsg   = "escrow/fund"
	pathSettleMsg = "escrow/settle"
	pathCancelMsg = "escrow/cancel"
)

var _ weave.Msg = (*CreateMsg)(nil)
var _ weave.Msg = (*FundMsg)(nil)
var _ weave.Msg = (*SettleMsg)(nil)
var _ weave.Msg = (*CancelMsg)(nil)

// CreateMsg registers a new escrow that awaits funding.
type CreateMsg struct {
	Metadata  *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowId  string          `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
	Recipient weave.Address   `protobuf:"bytes,3,opt,name=recipient,proto3" json:"recipient"`
	Amount    coin.Amount     `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount"`
}

func (m *CreateMsg) Reset()         { *m = CreateMsg{} }
func (m *CreateMsg) String() string { return proto.CompactTextString(m) }
func (*CreateMsg) ProtoMessage()    {}

// Path returns the routing path for this message
func (CreateMsg) Path() string {
	return pathCreateMsg
}

// Validate makes sure that this is sensible
func (m *CreateMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := ValidateEscrowID(m.EscrowId); err != nil {
		return err
	}
	if err := m.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return validatePositive(m.Amount)
}

// FundMsg pays for an escrow. The paid amount is taken from the wallet of
// the signer.
type FundMsg struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowId string          `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
	Amount   coin.Amount     `protobuf:"bytes,3,opt,name=amount,proto3" json:"amount"`
}

func (m *FundMsg) Reset()         { *m = FundMsg{} }
func (m *FundMsg) String() string { return proto.CompactTextString(m) }
func (*FundMsg) ProtoMessage()    {}

// Path returns the routing path for this message
func (FundMsg) Path() string {
	return pathFundMsg
}

// Validate makes sure that this is sensible
func (m *FundMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := ValidateEscrowID(m.EscrowId); err != nil {
		return err
	}
	return validatePositive(m.Amount)
}

// SettleMsg releases the held funds to the recipient.
type SettleMsg struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowId string          `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
}

func (m *SettleMsg) Reset()         { *m = SettleMsg{} }
func (m *SettleMsg) String() string { return proto.CompactTextString(m) }
func (*SettleMsg) ProtoMessage()    {}

// Path returns the routing path for this message
func (SettleMsg) Path() string {
	return pathSettleMsg
}

// Validate makes sure that this is sensible
func (m *SettleMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return ValidateEscrowID(m.EscrowId)
}

// CancelMsg terminates an escrow, refunding held funds to the relayer.
type CancelMsg struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowId string          `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3" json:"escrow_id"`
}

func (m *CancelMsg) Reset()         { *m = CancelMsg{} }
func (m *CancelMsg) String() string { return proto.CompactTextString(m) }
func (*CancelMsg) ProtoMessage()    {}

// Path returns the routing path for this message
func (CancelMsg) Path() string {
	return pathCancelMsg
}

// Validate makes sure that this is sensible
func (m *CancelMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return ValidateEscrowID(m.EscrowId)
}

func validatePositive(a coin.Amount) error {
	if err := a.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !a.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}
