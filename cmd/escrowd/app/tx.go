package escrowd

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// Tx is the transaction envelope of the escrow application. Exactly one
// message field must be set.
type Tx struct {
	Signatures []*sigs.StdSignature `protobuf:"bytes,1,rep,name=signatures,proto3" json:"signatures,omitempty"`

	SendMsg         *cash.SendMsg     `protobuf:"bytes,10,opt,name=send_msg,json=sendMsg,proto3" json:"send_msg,omitempty"`
	CreateEscrowMsg *escrow.CreateMsg `protobuf:"bytes,20,opt,name=create_escrow_msg,json=createEscrowMsg,proto3" json:"create_escrow_msg,omitempty"`
	FundEscrowMsg   *escrow.FundMsg   `protobuf:"bytes,21,opt,name=fund_escrow_msg,json=fundEscrowMsg,proto3" json:"fund_escrow_msg,omitempty"`
	SettleEscrowMsg *escrow.SettleMsg `protobuf:"bytes,22,opt,name=settle_escrow_msg,json=settleEscrowMsg,proto3" json:"settle_escrow_msg,omitempty"`
	CancelEscrowMsg *escrow.CancelMsg `protobuf:"bytes,23,opt,name=cancel_escrow_msg,json=cancelEscrowMsg,proto3" json:"cancel_escrow_msg,omitempty"`
}

func (m *Tx) Reset()         { *m = Tx{} }
func (m *Tx) String() string { return proto.CompactTextString(m) }
func (*Tx) ProtoMessage()    {}

// make sure tx fulfills all interfaces
var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	if err := proto.Unmarshal(bz, tx); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return tx, nil
}

// NewTx wraps given message into a transaction envelope.
func NewTx(msg weave.Msg) (*Tx, error) {
	tx := &Tx{}
	switch m := msg.(type) {
	case *cash.SendMsg:
		tx.SendMsg = m
	case *escrow.CreateMsg:
		tx.CreateEscrowMsg = m
	case *escrow.FundMsg:
		tx.FundEscrowMsg = m
	case *escrow.SettleMsg:
		tx.SettleEscrowMsg = m
	case *escrow.CancelMsg:
		tx.CancelEscrowMsg = m
	default:
		return nil, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
	}
	return tx, nil
}

// GetMsg returns the single message carried by the transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	var msgs []weave.Msg
	if tx.SendMsg != nil {
		msgs = append(msgs, tx.SendMsg)
	}
	if tx.CreateEscrowMsg != nil {
		msgs = append(msgs, tx.CreateEscrowMsg)
	}
	if tx.FundEscrowMsg != nil {
		msgs = append(msgs, tx.FundEscrowMsg)
	}
	if tx.SettleEscrowMsg != nil {
		msgs = append(msgs, tx.SettleEscrowMsg)
	}
	if tx.CancelEscrowMsg != nil {
		msgs = append(msgs, tx.CancelEscrowMsg)
	}

	switch len(msgs) {
	case 0:
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	case 1:
		return msgs[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "%d messages in one transaction", len(msgs))
	}
}

// GetSignatures returns the signatures collected so far.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of the
// signed content.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := *tx
	unsigned.Signatures = nil
	return proto.Marshal(&unsigned)
}
