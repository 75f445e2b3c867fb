package server

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	appStateKey = "app_state"
	flagIgnore  = "i"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func parseInitArgs(args []string) (bool, []string, error) {
	var ignore bool
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.BoolVar(&ignore, flagIgnore, false, "overwrite app_state if it is already set")
	if err := initFlags.Parse(args); err != nil {
		return false, nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return ignore, initFlags.Args(), nil
}

// InitCmd will add the app_state to a genesis file created by
// `tendermint init`. The application passes a function that builds
// the state from the remaining command line arguments.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	ignore, rest, err := parseInitArgs(args)
	if err != nil {
		return err
	}

	genFile := filepath.Join(home, "config", "genesis.json")
	if _, err := os.Stat(genFile); err != nil {
		return errors.Wrapf(errors.ErrNotFound, "genesis file %s, run tendermint init first", genFile)
	}

	options, err := gen(rest)
	if err != nil {
		return err
	}
	if err := addGenesisOptions(genFile, options, ignore); err != nil {
		return err
	}
	logger.Info("App state written", "path", genFile)
	return nil
}

func addGenesisOptions(filename string, options json.RawMessage, overwrite bool) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "cannot read genesis file")
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	if state, ok := doc[appStateKey]; ok && !overwrite && !isEmptyState(state) {
		return errors.Wrapf(errors.ErrImmutable, "%s already set, use -%s to overwrite", appStateKey, flagIgnore)
	}

	doc[appStateKey] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize genesis")
	}
	return ioutil.WriteFile(filename, out, 0600)
}

func isEmptyState(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}", `""`:
		return true
	}
	return false
}
