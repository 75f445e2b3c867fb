package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

const (
	maxMemoSize int = 128
	maxRefSize  int = 64
)

// SendMsg moves funds from the source wallet to the destination.
type SendMsg struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Src      weave.Address   `protobuf:"bytes,2,opt,name=src,proto3" json:"src"`
	Dest     weave.Address   `protobuf:"bytes,3,opt,name=dest,proto3" json:"dest"`
	Amount   coin.Amount     `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount"`
	// Memo is an optional human readable message.
	Memo string `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
	// Ref is an optional binary data used to link this transfer with
	// another entity, eg. an invoice.
	Ref []byte `protobuf:"bytes,6,opt,name=ref,proto3" json:"ref,omitempty"`
}

func (m *SendMsg) Reset()         { *m = SendMsg{} }
func (m *SendMsg) String() string { return proto.CompactTextString(m) }
func (*SendMsg) ProtoMessage()    {}

// Ensure we implement the Msg interface
var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (s *SendMsg) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := s.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !s.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive SendMsg: %s", s.Amount)
	}
	if err := s.Src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := s.Dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	if len(s.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	if len(s.Ref) > maxRefSize {
		return errors.Wrap(errors.ErrInput, "ref too long")
	}
	return nil
}
