package weave

import (
	"fmt"

	"github.com/iov-one/weave-escrow/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is what a handler returns from a successful DeliverTx.
// Failures are reported with an error instead.
type DeliverResult struct {
	// Data is the machine readable outcome, for example a created escrow ID.
	Data []byte
	Log  string
	// Tags are indexed by tendermint and make the transaction searchable.
	Tags    []common.KVPair
	GasUsed int64
}

// ToABCI returns the tendermint response for this result.
func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{Data: d.Data, Log: d.Log, Tags: d.Tags, GasUsed: d.GasUsed}
}

// CheckResult is what a handler returns from a successful CheckTx.
type CheckResult struct {
	Data []byte
	Log  string
	// GasAllocated is the most work the transaction may perform.
	GasAllocated int64
}

// NewCheck returns a check result allocating given gas.
func NewCheck(gasAllocated int64, log string) CheckResult {
	return CheckResult{GasAllocated: gasAllocated, Log: log}
}

// ToABCI returns the tendermint response for this result.
func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{Data: c.Data, Log: c.Log, GasWanted: c.GasAllocated}
}

// DeliverOrError returns the response for result, or for err when it is
// not nil.
func DeliverOrError(result DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError returns the response for result, or for err when it is not
// nil.
func CheckOrError(result CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// ParseDeliverOrError reverses DeliverOrError. A failed transaction is
// returned as an error matching the registered error of its code.
func ParseDeliverOrError(res abci.ResponseDeliverTx) (*DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	d := DeliverResult{Data: res.Data, Log: res.Log, Tags: res.Tags, GasUsed: res.GasUsed}
	return &d, nil
}

// DeliverTxError returns the response describing err. Stack traces are
// included only in debug mode.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := txErrorInfo("deliver", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError returns the response describing err. Stack traces are
// included only in debug mode.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := txErrorInfo("check", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func txErrorInfo(phase string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code != errors.SuccessABCICode {
		log = fmt.Sprintf("cannot %s tx: %s", phase, log)
	}
	return code, log
}
