package sigs

import (
	"fmt"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/weavetest"
)

// StdTx is a minimal signed transaction. The payload is used as the sign
// bytes.
type StdTx struct {
	Payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ weave.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	return &StdTx{Payload: payload}
}

func (tx *StdTx) GetMsg() (weave.Msg, error) {
	return &weavetest.Msg{RoutePath: "test/signed", Serialized: tx.Payload}, nil
}

func (tx *StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx *StdTx) GetSignBytes() ([]byte, error) {
	return append([]byte(nil), tx.Payload...), nil
}

func (tx *StdTx) Reset()         { *tx = StdTx{} }
func (tx *StdTx) String() string { return fmt.Sprintf("StdTx{%X}", tx.Payload) }
func (*StdTx) ProtoMessage()     {}
