package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
)

// SignCodeV1 prefixes every signed message and versions the layout built
// by BuildSignBytes.
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures verifies every signature of the transaction and
// advances the sequence of each signer. The signer conditions are returned
// in signature order, so the first one is the main signer. A single invalid
// signature rejects the whole transaction.
func VerifyTxSignatures(db weave.KVStore, tx SignedTx, chainID string) ([]weave.Condition, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	sigs := tx.GetSignatures()
	conds := make([]weave.Condition, len(sigs))
	for i, sig := range sigs {
		if conds[i], err = VerifySignature(db, sig, payload, chainID); err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
	}
	return conds, nil
}

// VerifySignature verifies a single signature over payload and, when
// valid, stores the signer with its sequence incremented.
func VerifySignature(db weave.KVStore, sig *StdSignature, payload []byte, chainID string) (weave.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	b := NewBucket()
	user, err := b.GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return nil, errors.Wrap(err, "load signer")
	}
	digest, err := BuildSignBytes(payload, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !user.Pubkey.Verify(digest, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := b.Save(db, user); err != nil {
		return nil, errors.Wrap(err, "save signer")
	}
	return user.Pubkey.Condition(), nil
}

// BuildSignBytes returns the SHA-512 digest that is signed for a
// transaction. The hashed message is laid out as
//
//   SignCodeV1 | len(chainID) as uint8 | chainID | seq as big endian int64 | payload
//
// Binding the chain ID and sequence prevents replays on other chains and
// of earlier transactions.
func BuildSignBytes(payload []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id %q", chainID)
	}
	msg := make([]byte, 0, len(SignCodeV1)+1+len(chainID)+8+len(payload))
	msg = append(msg, SignCodeV1...)
	msg = append(msg, uint8(len(chainID)))
	msg = append(msg, chainID...)
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], uint64(seq))
	msg = append(msg, nonce[:]...)
	msg = append(msg, payload...)

	digest := sha512.Sum512(msg)
	return digest[:], nil
}

// BuildSignBytesTx returns the digest to sign for tx.
func BuildSignBytesTx(tx SignedTx, chainID string, seq int64) ([]byte, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(payload, chainID, seq)
}

// SignTx signs tx with the key for use at given sequence.
func SignTx(key *crypto.PrivateKey, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	digest, err := BuildSignBytesTx(tx, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(digest)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return &StdSignature{Pubkey: key.PublicKey(), Signature: sig, Sequence: seq}, nil
}
