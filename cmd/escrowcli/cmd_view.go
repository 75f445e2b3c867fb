package main

import (
	"encoding/json"
	"io"

	"github.com/iov-one/weave-escrow/errors"
)

func cmdTransactionView(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Read binary serialized transaction from standard input and print it out in a
human readable JSON format.
`)
	if err := parse(fl, args); err != nil {
		return err
	}

	tx, _, err := readTx(input)
	if err != nil {
		return errors.Wrap(err, "cannot read transaction")
	}
	pretty, err := json.MarshalIndent(tx, "", "\t")
	if err != nil {
		return errors.Wrap(err, "cannot JSON serialize")
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}
