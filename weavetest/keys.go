package weavetest

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
)

// NewKey returns a freshly generated ed25519 private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a random key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}
