package main

import (
	"io"

	"github.com/iov-one/weave-escrow"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
)

func cmdCreateEscrow(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Create a transaction that registers a new escrow. The escrow must be funded
by the payer before the relayer can settle it.
`)
	var (
		idFl        = fl.String("id", "", "Unique identifier of the escrow.")
		recipientFl = flAddress(fl, "recipient", "Address that receives the funds when the escrow is settled.")
		amountFl    = flAmount(fl, "amount", "Amount that the payer must deposit.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	msg := &escrow.CreateMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		EscrowId:  *idFl,
		Recipient: *recipientFl,
		Amount:    *amountFl,
	}
	return writeMsg(output, msg)
}

func cmdFundEscrow(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Create a transaction that deposits funds into an escrow. The signer of this
transaction is the payer.
`)
	var (
		idFl     = fl.String("id", "", "Identifier of the escrow.")
		amountFl = flAmount(fl, "amount", "Deposited amount. It must not be less than the escrow amount.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	msg := &escrow.FundMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: *idFl,
		Amount:   *amountFl,
	}
	return writeMsg(output, msg)
}

func cmdSettleEscrow(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Create a transaction that releases escrow funds to the recipient. Only the
relayer can settle an escrow.
`)
	idFl := fl.String("id", "", "Identifier of the escrow.")
	if err := parse(fl, args); err != nil {
		return err
	}

	msg := &escrow.SettleMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: *idFl,
	}
	return writeMsg(output, msg)
}

func cmdCancelEscrow(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Create a transaction that cancels an escrow. Only the relayer can cancel an
escrow and any deposited funds are returned to the relayer.
`)
	idFl := fl.String("id", "", "Identifier of the escrow.")
	if err := parse(fl, args); err != nil {
		return err
	}

	msg := &escrow.CancelMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: *idFl,
	}
	return writeMsg(output, msg)
}

// writeMsg validates given message and writes it out wrapped in a
// transaction.
func writeMsg(output io.Writer, msg weave.Msg) error {
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "given data produce an invalid message")
	}
	tx, err := escrowd.NewTx(msg)
	if err != nil {
		return err
	}
	_, err = writeTx(output, tx)
	return err
}
