package main

import (
	"encoding/json"
	"io"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/client"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
)

func cmdQuery(input io.Reader, output io.Writer, args []string) error {
	fl := newFlagSet(`
Query the state of the application and print the result as JSON.

Exactly one of the escrow, balance or nonce flags must be given.
`)
	var (
		tmAddrFl = fl.String("tm", defaultTmAddr(),
			"Tendermint node address. You can use ESCROWCLI_TM_ADDR environment variable to set it.")
		escrowFl  = fl.String("escrow", "", "Identifier of the escrow to show.")
		balanceFl = flAddress(fl, "balance", "Address of the account which balance to show.")
		nonceFl   = flAddress(fl, "nonce", "Address of the account which next signature sequence to show.")
	)
	if err := parse(fl, args); err != nil {
		return err
	}

	q := client.NewClient(client.NewHTTPConnection(*tmAddrFl))

	var result interface{}
	var err error
	switch {
	case *escrowFl != "" && len(*balanceFl) == 0 && len(*nonceFl) == 0:
		result, err = queryEscrow(q, *escrowFl)
	case *escrowFl == "" && len(*balanceFl) != 0 && len(*nonceFl) == 0:
		result, err = queryBalance(q, *balanceFl)
	case *escrowFl == "" && len(*balanceFl) == 0 && len(*nonceFl) != 0:
		var seq int64
		seq, err = nextSequence(q, *nonceFl)
		result = map[string]int64{"sequence": seq}
	default:
		return errors.Wrap(errors.ErrInput, "exactly one of escrow, balance or nonce is required")
	}
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		return errors.Wrap(err, "cannot JSON serialize")
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}

type escrowView struct {
	ID        string        `json:"id"`
	State     string        `json:"state"`
	Recipient weave.Address `json:"recipient"`
	Amount    coin.Amount   `json:"amount"`
	Custody   weave.Address `json:"custody,omitempty"`
}

func queryEscrow(q client.Querier, id string) (*escrowView, error) {
	resp, err := client.AbciQuery(q, "/escrows", []byte(id))
	if err != nil {
		return nil, err
	}
	if len(resp.Models) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "escrow %q", id)
	}
	var e escrow.Escrow
	if err := proto.Unmarshal(resp.Models[0].Value, &e); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return &escrowView{
		ID:        string(resp.Models[0].Key),
		State:     e.State.String(),
		Recipient: e.Recipient,
		Amount:    e.Amount,
		Custody:   e.Custody,
	}, nil
}

type balanceView struct {
	Address weave.Address `json:"address"`
	Balance coin.Amount   `json:"balance"`
}

// queryBalance returns the balance of given account. An account that does
// not exist has a zero balance.
func queryBalance(q client.Querier, addr weave.Address) (*balanceView, error) {
	resp, err := client.AbciQuery(q, "/wallets", addr)
	if err != nil {
		return nil, err
	}
	view := &balanceView{Address: addr, Balance: coin.NewAmount(0)}
	if len(resp.Models) == 0 {
		return view, nil
	}
	var w cash.Wallet
	if err := proto.Unmarshal(resp.Models[0].Value, &w); err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	view.Balance = w.Balance
	return view, nil
}
