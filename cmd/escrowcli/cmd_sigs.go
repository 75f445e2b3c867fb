package main

import (
	"context"
	"io"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/client"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/sigs"
)

func cmdSignTransaction(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Sign given transaction. This is decoding a transaction data from standard
input, adds a signature and writes back to standard output signed transaction
content.

The chain ID and the sequence of the signer are fetched from the node.
`)
	var (
		tmAddrFl = fl.String("tm", defaultTmAddr(),
			"Tendermint node address. You can use ESCROWCLI_TM_ADDR environment variable to set it.")
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file that transaction should be signed with. You can use ESCROWCLI_PRIV_KEY environment variable to set it.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	key, err := decodePrivateKey(*keyPathFl)
	if err != nil {
		return errors.Wrap(err, "cannot load private key")
	}
	tx, _, err := readTx(input)
	if err != nil {
		return errors.Wrap(err, "cannot read transaction")
	}

	ctx := context.Background()
	escrowClient := client.NewClient(client.NewHTTPConnection(*tmAddrFl))
	chainID, err := escrowClient.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "cannot fetch chain ID")
	}
	seq, err := nextSequence(escrowClient, key.PublicKey().Address())
	if err != nil {
		return errors.Wrap(err, "cannot get the next sequence number")
	}

	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "cannot sign transaction")
	}
	tx.Signatures = append(tx.Signatures, sig)

	_, err = writeTx(output, tx)
	return err
}

// nextSequence returns the sequence value that the next signature of given
// address must use. An address that never signed starts with zero.
func nextSequence(q client.Querier, addr weave.Address) (int64, error) {
	user, err := queryUser(q, addr)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return user.Sequence, nil
}

func queryUser(q client.Querier, addr weave.Address) (*sigs.UserData, error) {
	resp, err := client.AbciQuery(q, "/auth", addr)
	if err != nil {
		return nil, err
	}
	if len(resp.Models) == 0 {
		return nil, nil
	}
	var user sigs.UserData
	if err := proto.Unmarshal(resp.Models[0].Value, &user); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return &user, nil
}
