package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
)

// newFlagSet returns a flag set that reports parsing failures instead of
// terminating the process. Usage is printed together with the flag defaults.
func newFlagSet(usage string) *flag.FlagSet {
	fl := flag.NewFlagSet("", flag.ContinueOnError)
	fl.SetOutput(os.Stderr)
	fl.Usage = func() {
		fmt.Fprint(fl.Output(), usage)
		fl.PrintDefaults()
	}
	return fl
}

// parse wraps flag set parsing errors with ErrInput.
func parse(fl *flag.FlagSet, args []string) error {
	if err := fl.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if fl.NArg() != 0 {
		return errors.Wrapf(errors.ErrInput, "unexpected arguments: %v", fl.Args())
	}
	return nil
}

// flAddress returns a value that is optionally set by a command line
// argument. Any format understood by weave.ParseAddress is accepted.
func flAddress(fl *flag.FlagSet, name, usage string) *weave.Address {
	var a flagAddress
	fl.Var(&a, name, usage)
	return (*weave.Address)(&a)
}

type flagAddress weave.Address

func (a flagAddress) String() string {
	if len(a) == 0 {
		return ""
	}
	return weave.Address(a).String()
}

func (a *flagAddress) Set(raw string) error {
	addr, err := weave.ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = flagAddress(addr)
	return nil
}

// flAmount returns an amount optionally set by a command line argument in
// its decimal form.
func flAmount(fl *flag.FlagSet, name, usage string) *coin.Amount {
	var a flagAmount
	fl.Var(&a, name, usage)
	return (*coin.Amount)(&a)
}

type flagAmount coin.Amount

func (a flagAmount) String() string {
	return coin.Amount(a).String()
}

func (a *flagAmount) Set(raw string) error {
	amount, err := coin.ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = flagAmount(amount)
	return nil
}
