package main

import (
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/gogo/protobuf/proto"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"golang.org/x/crypto/ed25519"
)

// writeTx serialize the transaction using a protocol buffer. First bytes
// written contain the information how much space the transaction takes.
// Size information is required to be able to stream the messages:
// https://developers.google.com/protocol-buffers/docs/techniques#streaming
func writeTx(w io.Writer, tx *escrowd.Tx) (int, error) {
	b, err := proto.Marshal(tx)
	if err != nil {
		return 0, errors.Wrap(err, "cannot serialize transaction")
	}

	var size [txHeaderSize]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(b)))

	if n, err := w.Write(size[:]); err != nil {
		return n, err
	}
	if n, err := w.Write(b); err != nil {
		return n + txHeaderSize, err
	}
	return txHeaderSize + len(b), nil
}

func readTx(r io.Reader) (*escrowd.Tx, int, error) {
	// When serialized using writeTx function, first bytes contain
	// information about the actual size of the transaction message.
	var size [txHeaderSize]byte
	if n, err := io.ReadFull(r, size[:]); err != nil {
		if err == io.EOF {
			return nil, n, errors.Wrap(errors.ErrEmpty, "no input data")
		}
		return nil, n, errors.Wrap(errors.ErrInput, err.Error())
	}
	msgSize := binary.BigEndian.Uint32(size[:])
	if msgSize > maxTxSize {
		return nil, txHeaderSize, errors.Wrapf(errors.ErrInput, "transaction too big: %d", msgSize)
	}
	raw := make([]byte, msgSize)
	if n, err := io.ReadFull(r, raw); err != nil {
		return nil, n + txHeaderSize, errors.Wrap(errors.ErrInput, err.Error())
	}

	var tx escrowd.Tx
	if err := proto.Unmarshal(raw, &tx); err != nil {
		return nil, int(msgSize + txHeaderSize), errors.Wrap(errors.ErrInput, err.Error())
	}
	return &tx, int(msgSize + txHeaderSize), nil
}

const (
	txHeaderSize = 4
	maxTxSize    = 1 << 20
)

func decodePrivateKey(filepath string) (*crypto.PrivateKey, error) {
	data, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot read %q file: %s", filepath, err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid private key length: %d", len(data))
	}
	return &crypto.PrivateKey{Ed25519: data}, nil
}
