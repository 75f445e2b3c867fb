package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Generate a new private key.

When successful a new file with binary content containing private key is
created. This command fails if the private key file already exists.

When a seed is given, the key is derived from it using the derivation path
instead of being random.
`)
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use ESCROWCLI_PRIV_KEY environment variable to set it.")
		seedFl = fl.String("seed", "",
			"Hex encoded master seed the key is derived from.")
		pathFl = fl.String("derivation", "m/44'/234'/0'",
			"SLIP-0010 derivation path used together with the seed.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	if _, err := os.Stat(*keyPathFl); !os.IsNotExist(err) {
		// Do not allow to overwrite already existing private key. User
		// must manually delete it first to ensure we do not delete
		// such crucial data by an accident (bad command usage).
		return errors.Wrapf(errors.ErrDuplicate, "private key file %q already exists, delete this file and try again", *keyPathFl)
	}

	var key *crypto.PrivateKey
	if *seedFl == "" {
		key = crypto.GenPrivKeyEd25519()
	} else {
		seed, err := hex.DecodeString(*seedFl)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "seed: %s", err)
		}
		if key, err = crypto.DerivePrivKeyEd25519(seed, *pathFl); err != nil {
			return err
		}
	}

	fd, err := os.OpenFile(*keyPathFl, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create private key file: %s", err)
	}
	defer fd.Close()

	if _, err := fd.Write(key.Ed25519); err != nil {
		return errors.Wrap(err, "cannot write private key")
	}
	if err := fd.Close(); err != nil {
		return errors.Wrap(err, "cannot close private key file")
	}
	return nil
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Print out a hex-address associated with your private key.
`)
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use ESCROWCLI_PRIV_KEY environment variable to set it.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	key, err := decodePrivateKey(*keyPathFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, key.PublicKey().Address())
	return err
}
