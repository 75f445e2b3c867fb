package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// operation is a request to change the state of an escrow.
type operation int

const (
	opFund operation = iota + 1
	opSettle
	opCancel
)

func (op operation) String() string {
	switch op {
	case opFund:
		return "fund"
	case opSettle:
		return "settle"
	case opCancel:
		return "cancel"
	}
	return "unknown"
}

// nextState returns the state an escrow in given state moves to when the
// operation is applied.
func nextState(current EscrowState, op operation) (EscrowState, error) {
	if err := current.Validate(); err != nil {
		return EscrowStateInvalid, err
	}
	switch op {
	case opFund:
		if current != EscrowStateInitiated {
			return EscrowStateInvalid, errors.Wrapf(errors.ErrState, "%s escrow is already funded or settled", current)
		}
		return EscrowStateFunded, nil
	case opSettle:
		if current != EscrowStateFunded {
			return EscrowStateInvalid, errors.Wrapf(errors.ErrState, "%s escrow is not funded", current)
		}
		return EscrowStateSettled, nil
	case opCancel:
		if current.IsTerminal() {
			return EscrowStateInvalid, errors.Wrapf(errors.ErrState, "%s escrow cannot be cancelled", current)
		}
		return EscrowStateCancelled, nil
	}
	return EscrowStateInvalid, errors.Wrapf(errors.ErrHuman, "unknown operation %d", int(op))
}

// authorizeRelayer returns ErrUnauthorized unless the caller is the
// configured relayer.
func authorizeRelayer(caller weave.Address, conf *Configuration) error {
	if len(caller) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "no caller")
	}
	if !caller.Equals(conf.Relayer) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the relayer", caller)
	}
	return nil
}
