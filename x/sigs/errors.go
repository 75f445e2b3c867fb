package sigs

import "github.com/iov-one/weave-escrow/errors"

// x/sigs reserves error codes 120 ~ 129.
var (
	// ErrInvalidSequence is returned when a signature sequence does not
	// match the one stored for the signer.
	ErrInvalidSequence = errors.Register(120, "invalid sequence number")
)
