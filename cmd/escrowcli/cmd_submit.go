package main

import (
	"context"
	"fmt"
	"io"

	"github.com/iov-one/weave-escrow/client"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
)

func cmdSubmitTransaction(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Read binary serialized transaction from standard input and submit it. The
command waits until the transaction is included in a block.

For an escrow creation the identifier of the new escrow is written out.

Make sure to collect enough signatures before submitting the transaction.
`)
	var (
		tmAddrFl = fl.String("tm", defaultTmAddr(),
			"Tendermint node address. You can use ESCROWCLI_TM_ADDR environment variable to set it.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	tx, _, err := readTx(input)
	if err != nil {
		return errors.Wrap(err, "cannot read transaction from input")
	}
	msg, err := tx.GetMsg()
	if err != nil {
		return err
	}

	escrowClient := client.NewClient(client.NewHTTPConnection(*tmAddrFl))
	res, err := escrowClient.BroadcastTxCommit(context.Background(), tx)
	if err != nil {
		return errors.Wrap(err, "cannot broadcast transaction")
	}
	if res.Err != nil {
		return errors.Wrap(res.Err, "transaction failed")
	}

	if _, ok := msg.(*escrow.CreateMsg); ok {
		_, err = fmt.Fprintln(output, string(res.Result.Data))
	}
	return err
}
