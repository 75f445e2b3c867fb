package escrowd

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/commands"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// Examples generates some example structs to dump out with testgen
func Examples() []commands.Example {
	// keys are derived from a fixed seed so the output is reproducible
	relayer := crypto.PrivKeyEd25519FromSeed(make([]byte, 32))
	payer := crypto.PrivKeyEd25519FromSeed(append(make([]byte, 31), 1))
	recipient := weave.NewCondition("sigs", "ed25519", []byte("recipient")).Address()
	meta := &weave.Metadata{Schema: 1}

	create := &escrow.CreateMsg{
		Metadata:  meta,
		EscrowId:  "order-1",
		Recipient: recipient,
		Amount:    coin.NewAmount(300),
	}
	fund := &escrow.FundMsg{Metadata: meta, EscrowId: "order-1", Amount: coin.NewAmount(300)}
	settle := &escrow.SettleMsg{Metadata: meta, EscrowId: "order-1"}
	cancel := &escrow.CancelMsg{Metadata: meta, EscrowId: "order-1"}
	send := &cash.SendMsg{
		Metadata: meta,
		Src:      relayer.PublicKey().Address(),
		Dest:     payer.PublicKey().Address(),
		Amount:   coin.NewAmount(500),
		Memo:     "top up",
	}

	fundTx := &Tx{FundEscrowMsg: fund}
	sig, err := sigs.SignTx(payer, fundTx, "escrow-example", 0)
	if err != nil {
		panic(err)
	}
	fundTx.Signatures = []*sigs.StdSignature{sig}

	return []commands.Example{
		{Filename: "pub_key", Obj: relayer.PublicKey()},
		{Filename: "create_escrow_msg", Obj: create},
		{Filename: "fund_escrow_msg", Obj: fund},
		{Filename: "settle_escrow_msg", Obj: settle},
		{Filename: "cancel_escrow_msg", Obj: cancel},
		{Filename: "send_msg", Obj: send},
		{Filename: "escrow", Obj: &escrow.Escrow{
			Metadata:  meta,
			Recipient: recipient,
			Amount:    coin.NewAmount(300),
			State:     escrow.EscrowStateInitiated,
		}},
		{Filename: "wallet", Obj: &cash.Wallet{Metadata: meta, Balance: coin.NewAmount(500)}},
		{Filename: "unsigned_tx", Obj: &Tx{CreateEscrowMsg: create}},
		{Filename: "signed_tx", Obj: fundTx},
	}
}
