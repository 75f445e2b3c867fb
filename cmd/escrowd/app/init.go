package escrowd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/cash"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// initialBalance is given to the operator account created by
// GenInitOptions.
var initialBalance = coin.NewAmount(1000000000)

// GenInitOptions will produce the app_state for a development chain. The
// single operator account owns the escrow configuration, acts as the relayer
// and holds all the funds.
//
// The operator address can be given as the first argument. If no address is
// provided, a new key is generated and printed out.
func GenInitOptions(args []string) (json.RawMessage, error) {
	var addr weave.Address
	if len(args) > 0 {
		a, err := weave.ParseAddress(args[0])
		if err != nil {
			return nil, err
		}
		if err := a.Validate(); err != nil {
			return nil, errors.Wrap(err, "operator")
		}
		addr = a
	} else {
		a, keys, err := GenerateCoinKey()
		if err != nil {
			return nil, err
		}
		addr = a
		fmt.Println(keys)
	}

	state := map[string]interface{}{
		"conf": map[string]interface{}{
			"escrow": map[string]interface{}{
				"metadata": weave.Metadata{Schema: 1},
				"owner":    addr,
				"relayer":  addr,
			},
		},
		"cash": []cash.GenesisAccount{
			{Address: addr, Balance: initialBalance},
		},
	}
	return json.MarshalIndent(state, "", "  ")
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "escrow.db")
	}

	application, err := Application(Name, Stack(), TxDecoder, dbPath, debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())
	application.WithLogger(logger)
	return application, nil
}

type output struct {
	Address weave.Address      `json:"address"`
	Pubkey  *crypto.PublicKey  `json:"pub_key"`
	Secret  *crypto.PrivateKey `json:"secret"`
}

// GenerateCoinKey returns the address of a new public key, along with a
// json representation of the keys.
func GenerateCoinKey() (weave.Address, string, error) {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Address: addr, Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", errors.Wrap(err, "cannot serialize keys")
	}
	return addr, string(keys), nil
}
