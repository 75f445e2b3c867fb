package main

import (
	"io"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/x/cash"
)

func cmdSendTokens(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Create a transaction for transferring funds from the source to the destination
account. The source account owner must sign the transaction.
`)
	var (
		srcFl    = flAddress(fl, "src", "A source account address that the founds are send from.")
		dstFl    = flAddress(fl, "dst", "A destination account address that the founds are send to.")
		amountFl = flAmount(fl, "amount", "An amount that is to be transferred between the source to the destination accounts.")
		memoFl   = fl.String("memo", "", "A short message attached to the transfer operation.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	msg := &cash.SendMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Src:      *srcFl,
		Dest:     *dstFl,
		Amount:   *amountFl,
		Memo:     *memoFl,
	}
	return writeMsg(output, msg)
}
